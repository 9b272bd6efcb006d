// Package deepgram binds the Deepgram live-streaming API as the host
// speech-recognition capability: it captures microphone audio, streams it over
// a websocket, and normalizes responses into ordered recognition events.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wakescribe/internal/domain"
	"wakescribe/internal/ports"
)

// Error kinds reported by this recognizer.
const (
	errKindProvider = "provider"
	errKindNetwork  = "network"
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
}

// Recognizer implements ports.Recognizer for Deepgram.
type Recognizer struct {
	cfg       Config
	capture   ports.AudioCapture
	audioCfg  ports.AudioConfig
	chunkSize int
	log       zerolog.Logger
}

func NewRecognizer(cfg Config, capture ports.AudioCapture, audioCfg ports.AudioConfig, chunkSize int, logger zerolog.Logger) *Recognizer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if chunkSize < 256 {
		chunkSize = 4096
	}
	return &Recognizer{
		cfg:       cfg,
		capture:   capture,
		audioCfg:  audioCfg,
		chunkSize: chunkSize,
		log:       logger.With().Str("component", "deepgram").Logger(),
	}
}

func (r *Recognizer) Start(ctx context.Context, cfg ports.RecognizerConfig) (ports.RecognizerSession, error) {
	if strings.TrimSpace(r.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := buildListenURL(r.cfg, r.audioCfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}

	captureSession, err := r.capture.Start(ctx, r.audioCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to start audio capture: %w", err)
	}

	session := &liveSession{
		conn:       conn,
		capture:    captureSession,
		continuous: cfg.Continuous,
		chunkSize:  r.chunkSize,
		events:     make(chan domain.RecognitionEvent, 64),
		errs:       make(chan domain.RecognitionError, 8),
		audio:      make(chan []byte, 32),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		log:        r.log,
	}

	session.wg.Add(3)
	go session.readLoop()
	go session.writeLoop()
	go session.pumpLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.errs)
		close(session.done)
		_ = conn.Close()
		_ = captureSession.Stop()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type liveSession struct {
	conn       *websocket.Conn
	capture    ports.AudioSession
	continuous bool
	chunkSize  int

	events  chan domain.RecognitionEvent
	errs    chan domain.RecognitionError
	audio   chan []byte
	closing chan struct{}
	done    chan struct{}

	wg  sync.WaitGroup
	seq int
	log zerolog.Logger

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
}

func (s *liveSession) Events() <-chan domain.RecognitionEvent { return s.events }

func (s *liveSession) Errors() <-chan domain.RecognitionError { return s.errs }

func (s *liveSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		_ = s.capture.Stop()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *liveSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *liveSession) setErr(err error) {
	if err == nil || isExpectedClose(err) {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

// pumpLoop feeds captured PCM chunks into the audio channel until the capture
// session drains, then signals end of input.
func (s *liveSession) pumpLoop() {
	defer s.wg.Done()
	defer s.closeSend()

	buf := make([]byte, s.chunkSize)
	for {
		n, err := s.capture.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case s.audio <- chunk:
			case <-s.closing:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *liveSession) closeSend() {
	s.closeSendOnce.Do(func() {
		close(s.audio)
	})
}

func (s *liveSession) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("failed to send audio: %w", err))
			// Unwind the pump so the session can finish.
			_ = s.capture.Stop()
			for range s.audio {
			}
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.log.Debug().Err(err).Msg("close stream write failed")
	}
}

func (s *liveSession) readLoop() {
	defer s.wg.Done()
	// Once the server side is done the pump has no consumer left.
	defer s.capture.Stop()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !isExpectedClose(err) {
				s.setErr(fmt.Errorf("failed to read recognizer response: %w", err))
				s.fail(domain.RecognitionError{Kind: errKindNetwork, Message: err.Error()})
			}
			return
		}

		var response listenResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.fail(domain.RecognitionError{Kind: errKindProvider, Message: message})
			return
		}

		hypotheses := extractHypotheses(response)
		if len(hypotheses) == 0 {
			continue
		}

		s.emit(domain.RecognitionEvent{Sequence: s.seq, Hypotheses: hypotheses})
		s.seq++

		if !s.continuous && hasFinal(hypotheses) {
			// One utterance was requested; end the session after its final.
			return
		}
	}
}

// emit delivers one event in order, blocking under backpressure. Every event
// must reach the consumer: a dropped final hypothesis would lose a wake or
// sleep transition. Close releases a blocked send.
func (s *liveSession) emit(event domain.RecognitionEvent) {
	select {
	case s.events <- event:
	case <-s.closing:
	}
}

func (s *liveSession) fail(recErr domain.RecognitionError) {
	select {
	case s.errs <- recErr:
	case <-s.closing:
	}
}

type listenResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func extractHypotheses(response listenResponse) []domain.Hypothesis {
	final := response.IsFinal || response.SpeechFinal
	var hypotheses []domain.Hypothesis
	for _, alternative := range response.Channel.Alternatives {
		text := strings.TrimSpace(alternative.Transcript)
		if text == "" {
			continue
		}
		hypotheses = append(hypotheses, domain.Hypothesis{Text: text, Final: final})
	}
	return hypotheses
}

func hasFinal(hypotheses []domain.Hypothesis) bool {
	for _, h := range hypotheses {
		if h.Final {
			return true
		}
	}
	return false
}

func buildListenURL(cfg Config, audioCfg ports.AudioConfig, recCfg ports.RecognizerConfig) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	sampleRate := audioCfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := audioCfg.Channels
	if channels <= 0 {
		channels = 1
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	query.Set("channels", fmt.Sprintf("%d", channels))
	query.Set("interim_results", fmt.Sprintf("%t", recCfg.InterimResults))
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	if recCfg.Language != "" {
		query.Set("language", recCfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
