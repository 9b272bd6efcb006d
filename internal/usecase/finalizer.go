package usecase

import (
	"context"
	"strings"

	"wakescribe/internal/domain"
	"wakescribe/internal/ports"
)

// transcriptFinalizer delivers a completed active stretch once a sleep word
// closes the gate: substitution rules are applied and the result is placed on
// the clipboard. Every failure here is non-fatal; the raw transcript always
// reaches observers.
type transcriptFinalizer struct {
	rules     ports.RulesEngine
	clipboard ports.Clipboard
	sink      ports.NotificationSink
}

func newTranscriptFinalizer(rules ports.RulesEngine, clipboard ports.Clipboard, sink ports.NotificationSink) transcriptFinalizer {
	return transcriptFinalizer{rules: rules, clipboard: clipboard, sink: sink}
}

func (f transcriptFinalizer) Finalize(ctx context.Context, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	transformed := raw
	if f.rules != nil {
		applied, err := f.rules.Apply(raw)
		if err != nil {
			f.sink.SessionError(domain.ErrorCodeRules, err.Error())
		} else {
			transformed = applied
		}
	}

	f.sink.FinalTranscript(raw, transformed)

	if f.clipboard == nil {
		return
	}
	if err := f.clipboard.SetText(ctx, transformed); err != nil {
		f.sink.SessionError(domain.ErrorCodeClipboard, "transcript ready but clipboard write failed")
	}
}
