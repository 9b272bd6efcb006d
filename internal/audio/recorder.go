// Package audio captures raw microphone PCM through an ffmpeg subprocess.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wakescribe/internal/ports"
)

const (
	startupProbe  = 250 * time.Millisecond
	stopGrace     = 1200 * time.Millisecond
	defaultBinary = "ffmpeg"
)

// Recorder implements ports.AudioCapture using an ffmpeg subprocess emitting
// signed 16-bit little-endian PCM on stdout.
type Recorder struct {
	binary string
	log    zerolog.Logger
}

func NewRecorder(binary string, logger zerolog.Logger) *Recorder {
	if binary == "" {
		binary = defaultBinary
	}
	return &Recorder{
		binary: binary,
		log:    logger.With().Str("component", "audio").Logger(),
	}
}

func (r *Recorder) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	// A capture process that dies immediately is a configuration problem,
	// not a streaming one; surface it from Start.
	select {
	case err := <-exited:
		detail := trimmedStderr(&stderr)
		if err != nil {
			return nil, fmt.Errorf("recorder exited before capture started: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("recorder exited before capture started: %s", detail)
	case <-time.After(startupProbe):
	}

	r.log.Debug().
		Str("format", cfg.InputFormat).
		Str("device", cfg.InputDevice).
		Int("sample_rate", cfg.SampleRate).
		Msg("capture started")

	return &recorderSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		exited:  exited,
		log:     r.log,
	}, nil
}

type recorderSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	exited  <-chan error
	log     zerolog.Logger

	stopOnce sync.Once
	stopErr  error
}

func (s *recorderSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *recorderSession) Close() error {
	return s.Stop()
}

// Stop interrupts the capture process, escalating to a kill when it does not
// exit within the grace period. An ffmpeg exit status after an interrupt is
// expected and not treated as an error.
func (s *recorderSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.exited:
			if ok {
				s.stopErr = ignoreExitStatus(err)
			}
		case <-time.After(stopGrace):
			s.log.Warn().Msg("capture process did not stop in time, killing")
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.exited; ok {
				s.stopErr = ignoreExitStatus(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmedStderr(s.stderr))
		}
	})

	return s.stopErr
}

func ignoreExitStatus(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmedStderr(buf *bytes.Buffer) string {
	return string(bytes.TrimSpace(buf.Bytes()))
}
