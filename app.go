package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"wakescribe/internal/bootstrap"
	"wakescribe/internal/config"
	"wakescribe/internal/domain"
	"wakescribe/internal/usecase"
)

const (
	eventSession    = "wakescribe:session"
	eventTranscript = "wakescribe:transcript"
	eventWake       = "wakescribe:wake"
	eventSleep      = "wakescribe:sleep"
	eventFinal      = "wakescribe:final"
	eventError      = "wakescribe:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	listener *usecase.Listener
	cfg      config.Config
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &wailsClipboard{})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.listener = services.Listener
	a.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonBoot)
}

// StartListening begins wake-word gated listening. Failures are reported as
// error events, never returned to the frontend.
func (a *App) StartListening() domain.Status {
	if !a.requireReady() {
		return a.GetStatus()
	}
	a.listener.StartListening(a.ctx)
	return a.listener.Status()
}

// StopListening halts listening and keeps the accumulated transcript.
func (a *App) StopListening() domain.Status {
	if !a.requireReady() {
		return a.GetStatus()
	}
	a.listener.StopListening()
	return a.listener.Status()
}

// ResetTranscript clears accumulated transcript text without leaving the
// current activation state.
func (a *App) ResetTranscript() domain.Snapshot {
	if !a.requireReady() {
		return domain.Snapshot{}
	}
	a.listener.ResetTranscript()
	return a.listener.Snapshot()
}

// Configure applies new listener words and language at runtime.
func (a *App) Configure(wakeWord string, sleepWord string, language string) domain.Status {
	if !a.requireReady() {
		return a.GetStatus()
	}
	opts := usecase.Options{
		WakeWord:       wakeWord,
		SleepWord:      sleepWord,
		Continuous:     a.cfg.Listener.Continuous,
		InterimResults: a.cfg.Listener.InterimResults,
		Language:       language,
	}
	a.listener.Configure(opts)
	return a.listener.Status()
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.listener == nil {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle}
	}
	return a.listener.Status()
}

// GetSnapshot returns the full observable listener state.
func (a *App) GetSnapshot() domain.Snapshot {
	if a.listener == nil {
		return domain.Snapshot{Error: a.GetStatus().Message}
	}
	return a.listener.Snapshot()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"provider":  "Deepgram",
		"model":     a.cfg.Deepgram.Model,
		"language":  a.cfg.Listener.Language,
		"wakeWord":  a.cfg.Listener.WakeWord,
		"sleepWord": a.cfg.Listener.SleepWord,
		"rulesFile": a.cfg.Rules.Path,
	}
}

func (a *App) requireReady() bool {
	if a.bootErr != nil {
		a.SessionError(domain.ErrorCodeStartup, a.bootErr.Error())
		return false
	}
	return a.listener != nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": sessionReasonMessage(reason),
	})
}

// Transcript emits accumulated transcript text, interim or final.
func (a *App) Transcript(text string, final bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]any{
		"text":  text,
		"final": final,
	})
}

// WakeWordDetected signals that the wake word opened the gate.
func (a *App) WakeWordDetected() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventWake, map[string]string{
		"message": "Wake word detected",
	})
}

// SleepWordDetected signals that the sleep word closed the gate.
func (a *App) SleepWordDetected() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSleep, map[string]string{
		"message": "Sleep word detected",
	})
}

// FinalTranscript emits the finalized transcript with rules applied.
func (a *App) FinalTranscript(raw string, transformed string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventFinal, map[string]string{
		"raw":         raw,
		"transformed": transformed,
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonBoot:
		return "Ready"
	case domain.SessionReasonListeningStarted:
		return "Listening for wake word"
	case domain.SessionReasonListeningStopped:
		return "Listening stopped"
	case domain.SessionReasonWakeWordDetected:
		return "Wake word detected; transcribing"
	case domain.SessionReasonSleepWordDetected:
		return "Sleep word detected; waiting for wake word"
	case domain.SessionReasonTranscriptReset:
		return "Transcript cleared"
	case domain.SessionReasonRecognizerRestarted:
		return "Recognizer restarted"
	case domain.SessionReasonReconfigured:
		return "Listener reconfigured"
	case domain.SessionReasonRecognizerUnavailable:
		return "Speech recognition is not available"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeUnsupported:
		return "Speech recognition is not supported"
	case domain.ErrorCodeStart:
		return "Could not start listening"
	case domain.ErrorCodeRecognition:
		return "Recognition error"
	case domain.ErrorCodeRules:
		return "Rules processing failed"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
