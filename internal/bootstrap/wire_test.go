package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wakescribe/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	services, err := Build(noopSink{}, noopClipboard{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Listener == nil {
		t.Fatalf("expected listener")
	}
	if !services.Listener.Snapshot().Supported {
		t.Fatalf("expected recognition to be supported with an API key")
	}
}

func TestBuildWithoutAPIKeyLeavesRecognizerUnset(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DEEPGRAM_API_KEY", "")

	services, err := Build(noopSink{}, noopClipboard{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Listener.Snapshot().Supported {
		t.Fatalf("expected recognition to be unsupported without an API key")
	}
}

func TestBuildFailsOnInvalidRules(t *testing.T) {
	home := t.TempDir()
	rulesPath := filepath.Join(home, "bad.rules")
	if err := os.WriteFile(rulesPath, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("WAKESCRIBE_RULES_FILE", rulesPath)

	_, err := Build(noopSink{}, noopClipboard{})
	if err == nil {
		t.Fatalf("expected build error due to invalid rules")
	}
}

type noopSink struct{}

func (noopSink) SessionStateChanged(_ domain.SessionState, _ domain.SessionStateReason) {}
func (noopSink) Transcript(_ string, _ bool)                                            {}
func (noopSink) WakeWordDetected()                                                      {}
func (noopSink) SleepWordDetected()                                                     {}
func (noopSink) FinalTranscript(_, _ string)                                            {}
func (noopSink) SessionError(_ domain.ErrorCode, _ string)                              {}

type noopClipboard struct{}

func (noopClipboard) SetText(_ context.Context, _ string) error { return nil }
