package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wakescribe/internal/domain"
	"wakescribe/internal/ports"
)

var ErrUnsupported = errors.New("no speech recognizer available on this host")

// Options controls wake-word gating and recognizer behavior.
type Options struct {
	WakeWord       string
	SleepWord      string
	Continuous     bool
	InterimResults bool
	Language       string
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		WakeWord:       "hi",
		SleepWord:      "bye",
		Continuous:     true,
		InterimResults: true,
		Language:       "en-US",
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.WakeWord == "" {
		o.WakeWord = defaults.WakeWord
	}
	if o.SleepWord == "" {
		o.SleepWord = defaults.SleepWord
	}
	if o.Language == "" {
		o.Language = defaults.Language
	}
	return o
}

func (o Options) recognizerConfig() ports.RecognizerConfig {
	return ports.RecognizerConfig{
		Continuous:     o.Continuous,
		InterimResults: o.InterimResults,
		Language:       o.Language,
	}
}

// Listener owns the wake/sleep transcription session. It serializes
// recognizer events and user commands onto one logical turn: every event is
// processed to completion, and its notifications emitted, before the next is
// admitted. Sink callbacks therefore must not block and must not call back
// into the listener.
type Listener struct {
	recognizer ports.Recognizer
	sink       ports.NotificationSink
	finalizer  transcriptFinalizer
	log        zerolog.Logger

	mu        sync.Mutex
	opts      Options
	gate      *wakeGate
	listening bool
	lastErr   string
	baseCtx   context.Context
	current   *recognizerRun
}

func NewListener(
	recognizer ports.Recognizer,
	rules ports.RulesEngine,
	clipboard ports.Clipboard,
	sink ports.NotificationSink,
	opts Options,
	logger zerolog.Logger,
) *Listener {
	opts = opts.withDefaults()
	return &Listener{
		recognizer: recognizer,
		sink:       sink,
		finalizer:  newTranscriptFinalizer(rules, clipboard, sink),
		log:        logger.With().Str("component", "listener").Logger(),
		opts:       opts,
		gate:       newWakeGate(opts.WakeWord, opts.SleepWord),
		baseCtx:    context.Background(),
	}
}

// IsSupported reports whether a recognizer capability is available.
func (l *Listener) IsSupported() bool {
	return l.recognizer != nil
}

// StartListening starts a recognizer session. Invoking it while already
// listening is benign and ignored. Failures never propagate as errors; they
// are recorded and emitted through the sink.
func (l *Listener) StartListening(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.recognizer == nil {
		l.lastErr = ErrUnsupported.Error()
		l.sink.SessionError(domain.ErrorCodeUnsupported, l.lastErr)
		l.sink.SessionStateChanged(domain.SessionStateError, domain.SessionReasonRecognizerUnavailable)
		return
	}
	if l.listening {
		l.log.Debug().Msg("start requested while already listening")
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	l.baseCtx = ctx

	if err := l.startRunLocked(); err != nil {
		l.lastErr = err.Error()
		l.sink.SessionError(domain.ErrorCodeStart, err.Error())
		return
	}

	l.listening = true
	l.lastErr = ""
	l.sink.SessionStateChanged(l.stateLocked(), domain.SessionReasonListeningStarted)
}

// StopListening stops the recognizer and forces the gate shut. Stopping never
// emits a sleep-word notification, and it is effective even if the recognizer
// is mid-event: any event from the retired session is dropped.
func (l *Listener) StopListening() {
	l.mu.Lock()
	run := l.current
	l.current = nil
	l.listening = false
	l.gate.Deactivate()
	l.sink.SessionStateChanged(domain.SessionStateIdle, domain.SessionReasonListeningStopped)
	l.mu.Unlock()

	if run != nil {
		run.shutdown()
		l.log.Debug().Str("session", run.id).Msg("listening stopped")
	}
}

// ResetTranscript clears committed and interim text without changing the
// listening or activation state.
func (l *Listener) ResetTranscript() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gate.Reset()
	l.sink.SessionStateChanged(l.stateLocked(), domain.SessionReasonTranscriptReset)
}

// Configure replaces the listener options. When recognizer settings change
// while listening, the current session is torn down and a fresh one started so
// no stale subscription outlives its configuration.
func (l *Listener) Configure(opts Options) {
	opts = opts.withDefaults()

	l.mu.Lock()
	restart := l.listening && opts.recognizerConfig() != l.opts.recognizerConfig()
	l.opts = opts
	l.gate.setWords(opts.WakeWord, opts.SleepWord)
	var run *recognizerRun
	if restart {
		run = l.current
		l.current = nil
	}
	l.mu.Unlock()

	if !restart {
		return
	}
	if run != nil {
		run.shutdown()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.listening || l.current != nil {
		return
	}
	if err := l.startRunLocked(); err != nil {
		l.lastErr = err.Error()
		l.sink.SessionError(domain.ErrorCodeStart, err.Error())
		return
	}
	l.sink.SessionStateChanged(l.stateLocked(), domain.SessionReasonReconfigured)
}

// Status returns the current backend status.
func (l *Listener) Status() domain.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.Status{
		State:     l.stateLocked(),
		Listening: l.listening,
		Active:    l.gate.active,
		Message:   l.lastErr,
	}
}

// Snapshot returns the full observable state surface.
func (l *Listener) Snapshot() domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.Snapshot{
		Listening:         l.listening,
		Active:            l.gate.active,
		Transcript:        l.gate.transcript,
		InterimTranscript: l.gate.interim,
		Error:             l.lastErr,
		Supported:         l.recognizer != nil,
	}
}

func (l *Listener) stateLocked() domain.SessionState {
	switch {
	case !l.listening:
		return domain.SessionStateIdle
	case l.gate.active:
		return domain.SessionStateActive
	default:
		return domain.SessionStateWaiting
	}
}

func (l *Listener) startRunLocked() error {
	runCtx, cancel := context.WithCancel(l.baseCtx)
	session, err := l.recognizer.Start(runCtx, l.opts.recognizerConfig())
	if err != nil {
		cancel()
		return err
	}
	run := &recognizerRun{
		id:      uuid.NewString(),
		cancel:  cancel,
		session: session,
		done:    make(chan struct{}),
	}
	l.current = run
	go l.consume(run)
	l.log.Debug().Str("session", run.id).Msg("recognizer session started")
	return nil
}

// consume drains one recognizer session in arrival order. It is the only
// goroutine feeding the gate for its session, which keeps event processing
// strictly serial.
func (l *Listener) consume(run *recognizerRun) {
	defer close(run.done)

	events := run.session.Events()
	errs := run.session.Errors()
	for events != nil || errs != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			l.handleEvent(run, event)
		case recErr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.handleRecognitionError(run, recErr)
		}
	}

	l.sessionEnded(run)
}

func (l *Listener) handleEvent(run *recognizerRun, event domain.RecognitionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != run {
		return
	}

	for _, n := range l.gate.Process(event) {
		switch n.kind {
		case noticeTranscript:
			l.sink.Transcript(n.text, n.final)
		case noticeWake:
			l.sink.WakeWordDetected()
			l.sink.SessionStateChanged(domain.SessionStateActive, domain.SessionReasonWakeWordDetected)
		case noticeSleep:
			l.sink.SleepWordDetected()
			l.sink.SessionStateChanged(domain.SessionStateWaiting, domain.SessionReasonSleepWordDetected)
			l.finalizer.Finalize(l.baseCtx, l.gate.transcript)
		}
	}
}

func (l *Listener) handleRecognitionError(run *recognizerRun, recErr domain.RecognitionError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != run {
		return
	}

	switch recErr.Kind {
	case domain.ErrorKindNoSpeech, domain.ErrorKindAborted:
		l.log.Debug().Str("kind", recErr.Kind).Msg("suppressed recognizer error")
		return
	}

	l.lastErr = recErr.Error()
	l.sink.SessionError(domain.ErrorCodeRecognition, recErr.Error())
}

// sessionEnded handles a session that finished on its own. Platform-enforced
// timeouts end sessions spontaneously, so while the caller's intent is still
// listening the recognizer is restarted immediately. The intent flag is the
// guard, never the session's own state: a stop requested mid-event must win.
func (l *Listener) sessionEnded(run *recognizerRun) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != run {
		return
	}
	l.current = nil
	run.cancel()

	if !l.listening {
		return
	}
	if err := l.startRunLocked(); err != nil {
		l.log.Warn().Err(err).Msg("recognizer restart failed")
		return
	}
	l.sink.SessionStateChanged(l.stateLocked(), domain.SessionReasonRecognizerRestarted)
}
