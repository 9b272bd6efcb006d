package ports

import (
	"context"
	"io"

	"wakescribe/internal/domain"
)

// RecognizerConfig describes how a recognizer session should behave.
type RecognizerConfig struct {
	Continuous     bool
	InterimResults bool
	Language       string
}

// RecognizerSession is a running recognizer. Events are delivered in arrival
// order until the session ends, at which point both channels are closed. A
// session may end spontaneously; the caller decides whether to start another.
type RecognizerSession interface {
	Events() <-chan domain.RecognitionEvent
	Errors() <-chan domain.RecognitionError
	Wait() error
	Close() error
}

// Recognizer is the host speech-recognition capability.
type Recognizer interface {
	Start(ctx context.Context, cfg RecognizerConfig) (RecognizerSession, error)
}

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// NotificationSink emits backend state/events to the UI. Implementations must
// not block: sinks are invoked synchronously inside the listener turn that
// produced the notification.
type NotificationSink interface {
	SessionStateChanged(state domain.SessionState, reason domain.SessionStateReason)
	Transcript(text string, final bool)
	WakeWordDetected()
	SleepWordDetected()
	FinalTranscript(raw string, transformed string)
	SessionError(code domain.ErrorCode, detail string)
}
