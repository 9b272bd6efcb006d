package main

import (
	"errors"
	"testing"

	"wakescribe/internal/domain"
)

func TestSessionReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.SessionStateReason]string{
		domain.SessionReasonBoot:                  "Ready",
		domain.SessionReasonListeningStarted:      "Listening for wake word",
		domain.SessionReasonListeningStopped:      "Listening stopped",
		domain.SessionReasonWakeWordDetected:      "Wake word detected; transcribing",
		domain.SessionReasonSleepWordDetected:     "Sleep word detected; waiting for wake word",
		domain.SessionReasonTranscriptReset:       "Transcript cleared",
		domain.SessionReasonRecognizerRestarted:   "Recognizer restarted",
		domain.SessionReasonReconfigured:          "Listener reconfigured",
		domain.SessionReasonRecognizerUnavailable: "Speech recognition is not available",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := sessionReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := sessionReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:     "Startup failed",
		domain.ErrorCodeUnsupported: "Speech recognition is not supported",
		domain.ErrorCodeStart:       "Could not start listening",
		domain.ErrorCodeRecognition: "Recognition error",
		domain.ErrorCodeRules:       "Rules processing failed",
		domain.ErrorCodeClipboard:   "Clipboard write failed",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if app.requireReady() {
		t.Fatalf("expected uninitialized app to not be ready")
	}

	app.bootErr = errors.New("boot")
	if app.requireReady() {
		t.Fatalf("expected app with boot error to not be ready")
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.SessionStateIdle || status.Active {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.State != domain.SessionStateError || status.Active || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
}

func TestGetSnapshotWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{bootErr: errors.New("boot")}
	snapshot := app.GetSnapshot()
	if snapshot.Supported || snapshot.Error != "boot" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestGetRuntimeInfoWithBootError(t *testing.T) {
	t.Parallel()

	app := &App{bootErr: errors.New("boot")}
	info := app.GetRuntimeInfo()
	if info["error"] != "boot" {
		t.Fatalf("unexpected runtime info: %+v", info)
	}
}
