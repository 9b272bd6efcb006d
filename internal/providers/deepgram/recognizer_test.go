package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wakescribe/internal/domain"
	"wakescribe/internal/ports"
)

func TestNewRecognizerDefaults(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(Config{}, nil, ports.AudioConfig{}, 0, zerolog.Nop())
	if r.cfg.APIBaseURL != "https://api.deepgram.com/v1" {
		t.Fatalf("unexpected base url: %q", r.cfg.APIBaseURL)
	}
	if r.cfg.Model != "nova-2" {
		t.Fatalf("unexpected model: %q", r.cfg.Model)
	}
	if r.chunkSize != 4096 {
		t.Fatalf("unexpected chunk size: %d", r.chunkSize)
	}
}

func TestRecognizerStartRequiresAPIKey(t *testing.T) {
	t.Parallel()

	r := NewRecognizer(Config{APIKey: "  "}, nil, ports.AudioConfig{}, 0, zerolog.Nop())
	_, err := r.Start(context.Background(), ports.RecognizerConfig{})
	if err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestBuildListenURLDefaults(t *testing.T) {
	t.Parallel()

	url, err := buildListenURL(
		Config{APIBaseURL: "https://api.deepgram.com/v1", Model: "nova-2"},
		ports.AudioConfig{},
		ports.RecognizerConfig{},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(url, "wss://api.deepgram.com/v1/listen") {
		t.Fatalf("unexpected ws url: %s", url)
	}
	if !strings.Contains(url, "encoding=linear16") {
		t.Fatalf("expected default encoding in url: %s", url)
	}
	if !strings.Contains(url, "sample_rate=16000") {
		t.Fatalf("expected default sample_rate in url: %s", url)
	}
	if !strings.Contains(url, "channels=1") {
		t.Fatalf("expected default channels in url: %s", url)
	}
	if !strings.Contains(url, "interim_results=false") {
		t.Fatalf("expected interim_results in url: %s", url)
	}
}

func TestBuildListenURLWithLanguageAndInterims(t *testing.T) {
	t.Parallel()

	url, err := buildListenURL(
		Config{APIBaseURL: "http://localhost:8080/v1", Model: "m", SmartFormat: true},
		ports.AudioConfig{SampleRate: 8000, Channels: 2},
		ports.RecognizerConfig{InterimResults: true, Language: "en-US"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(url, "ws://localhost:8080/v1/listen") {
		t.Fatalf("unexpected ws url: %s", url)
	}
	if !strings.Contains(url, "language=en-US") {
		t.Fatalf("expected language in url: %s", url)
	}
	if !strings.Contains(url, "interim_results=true") {
		t.Fatalf("expected interim_results in url: %s", url)
	}
	if !strings.Contains(url, "smart_format=true") {
		t.Fatalf("expected smart_format in url: %s", url)
	}
	if !strings.Contains(url, "sample_rate=8000") {
		t.Fatalf("expected sample_rate in url: %s", url)
	}
}

func TestBuildListenURLInvalidBase(t *testing.T) {
	t.Parallel()

	_, err := buildListenURL(Config{APIBaseURL: ":// bad"}, ports.AudioConfig{}, ports.RecognizerConfig{})
	if err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestExtractHypotheses(t *testing.T) {
	t.Parallel()

	var interim listenResponse
	if err := json.Unmarshal([]byte(`{"is_final":false,"channel":{"alternatives":[{"transcript":" hi there "},{"transcript":"high there"},{"transcript":""}]}}`), &interim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := extractHypotheses(interim)
	if len(got) != 2 {
		t.Fatalf("unexpected hypothesis count: %d", len(got))
	}
	if got[0] != (domain.Hypothesis{Text: "hi there", Final: false}) {
		t.Fatalf("unexpected first hypothesis: %+v", got[0])
	}
	if got[1].Text != "high there" {
		t.Fatalf("unexpected second hypothesis: %+v", got[1])
	}
	if hasFinal(got) {
		t.Fatalf("interim result should not contain finals")
	}

	var final listenResponse
	if err := json.Unmarshal([]byte(`{"speech_final":true,"channel":{"alternatives":[{"transcript":"bye"}]}}`), &final); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := extractHypotheses(final); !hasFinal(got) {
		t.Fatalf("speech_final result should be final: %+v", got)
	}

	if got := extractHypotheses(listenResponse{}); len(got) != 0 {
		t.Fatalf("expected no hypotheses, got %+v", got)
	}
}

func TestLiveSessionSetErrIgnoresCloseErrors(t *testing.T) {
	t.Parallel()

	s := &liveSession{}
	s.setErr(&websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "closed"})
	if s.waitErr() != nil {
		t.Fatalf("expected close error to be ignored")
	}

	s.setErr(errors.New("boom"))
	if s.waitErr() == nil || s.waitErr().Error() != "boom" {
		t.Fatalf("expected non-close error to be captured")
	}
}

func TestLiveSessionSetErrFirstWins(t *testing.T) {
	t.Parallel()

	s := &liveSession{}
	s.setErr(errors.New("first"))
	s.setErr(errors.New("second"))
	if s.waitErr() == nil || s.waitErr().Error() != "first" {
		t.Fatalf("expected first error to win")
	}
}

func TestLiveSessionEmitDeliversUnderBackpressure(t *testing.T) {
	t.Parallel()

	s := &liveSession{
		events:  make(chan domain.RecognitionEvent, 1),
		closing: make(chan struct{}),
	}

	s.emit(domain.RecognitionEvent{Sequence: 0})

	delivered := make(chan struct{})
	go func() {
		s.emit(domain.RecognitionEvent{Sequence: 1})
		close(delivered)
	}()

	// The buffer is full; the second emit must wait for the consumer, never
	// drop the event.
	select {
	case <-delivered:
		t.Fatalf("emit must block while the buffer is full")
	case <-time.After(20 * time.Millisecond):
	}

	if got := <-s.events; got.Sequence != 0 {
		t.Fatalf("unexpected first event: %+v", got)
	}
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatalf("emit did not complete after the consumer drained")
	}
	if got := <-s.events; got.Sequence != 1 {
		t.Fatalf("unexpected second event: %+v", got)
	}
}

func TestLiveSessionEmitReleasedByClosing(t *testing.T) {
	t.Parallel()

	s := &liveSession{
		events:  make(chan domain.RecognitionEvent, 1),
		closing: make(chan struct{}),
	}
	s.emit(domain.RecognitionEvent{Sequence: 0})

	released := make(chan struct{})
	go func() {
		s.emit(domain.RecognitionEvent{Sequence: 1})
		close(released)
	}()

	close(s.closing)
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatalf("a blocked emit must be released when the session closes")
	}
}

func TestLiveSessionCloseSendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := &liveSession{audio: make(chan []byte, 1)}
	s.closeSend()
	s.closeSend()
	if _, open := <-s.audio; open {
		t.Fatalf("expected audio channel to be closed")
	}
}
