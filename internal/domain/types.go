package domain

// SessionState models the wake-word gated listening lifecycle.
type SessionState string

const (
	SessionStateIdle    SessionState = "idle"
	SessionStateWaiting SessionState = "waiting"
	SessionStateActive  SessionState = "active"
	SessionStateError   SessionState = "error"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonBoot                  SessionStateReason = "boot"
	SessionReasonListeningStarted      SessionStateReason = "listening_started"
	SessionReasonListeningStopped      SessionStateReason = "listening_stopped"
	SessionReasonWakeWordDetected      SessionStateReason = "wake_word_detected"
	SessionReasonSleepWordDetected     SessionStateReason = "sleep_word_detected"
	SessionReasonTranscriptReset       SessionStateReason = "transcript_reset"
	SessionReasonRecognizerRestarted   SessionStateReason = "recognizer_restarted"
	SessionReasonReconfigured          SessionStateReason = "reconfigured"
	SessionReasonRecognizerUnavailable SessionStateReason = "recognizer_unavailable"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeUnsupported ErrorCode = "unsupported"
	ErrorCodeStart       ErrorCode = "start_failure"
	ErrorCodeRecognition ErrorCode = "recognition"
	ErrorCodeRules       ErrorCode = "rules"
	ErrorCodeClipboard   ErrorCode = "clipboard"
)

// Hypothesis is one candidate transcription of spoken audio. Interim
// hypotheses are provisional and superseded by later ones; final hypotheses
// are committed and never revised.
type Hypothesis struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// RecognitionEvent is one normalized recognizer callback. Events within a
// session are totally ordered by Sequence.
type RecognitionEvent struct {
	Sequence   int          `json:"sequence"`
	Hypotheses []Hypothesis `json:"hypotheses"`
}

// RecognitionError is a recognizer platform error surfaced mid-session.
type RecognitionError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e RecognitionError) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return e.Kind + ": " + e.Message
}

// Recognizer error kinds that are non-actionable and never surfaced.
const (
	ErrorKindNoSpeech = "no-speech"
	ErrorKindAborted  = "aborted"
)

// Status summarizes the current runtime status.
type Status struct {
	State     SessionState `json:"state"`
	Listening bool         `json:"listening"`
	Active    bool         `json:"active"`
	Message   string       `json:"message,omitempty"`
}

// Snapshot is the full observable state surface of the listener.
type Snapshot struct {
	Listening         bool   `json:"listening"`
	Active            bool   `json:"active"`
	Transcript        string `json:"transcript"`
	InterimTranscript string `json:"interimTranscript"`
	Error             string `json:"error,omitempty"`
	Supported         bool   `json:"supported"`
}
