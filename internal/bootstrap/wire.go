package bootstrap

import (
	"strings"

	"github.com/rs/zerolog"

	"wakescribe/internal/audio"
	"wakescribe/internal/config"
	"wakescribe/internal/logging"
	"wakescribe/internal/ports"
	"wakescribe/internal/providers/deepgram"
	"wakescribe/internal/rules"
	"wakescribe/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Listener *usecase.Listener
	Config   config.Config
	Log      zerolog.Logger
}

// Build wires all backend dependencies for the current runtime. A missing
// Deepgram API key leaves the recognizer unset so the listener reports the
// capability as unsupported instead of failing the whole application.
func Build(sink ports.NotificationSink, clipboard ports.Clipboard) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	log := logging.New(cfg.Log)

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	var recognizer ports.Recognizer
	if strings.TrimSpace(cfg.Deepgram.APIKey) != "" {
		recognizer = deepgram.NewRecognizer(
			deepgram.Config{
				APIKey:      cfg.Deepgram.APIKey,
				APIBaseURL:  cfg.Deepgram.APIBaseURL,
				Model:       cfg.Deepgram.Model,
				SmartFormat: cfg.Deepgram.SmartFormat,
			},
			audio.NewRecorder(cfg.Audio.RecorderCommand, log),
			ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			cfg.Audio.ChunkSize,
			log,
		)
	} else {
		log.Warn().Msg("DEEPGRAM_API_KEY is not set, speech recognition is unavailable")
	}

	listener := usecase.NewListener(
		recognizer,
		rulesEngine,
		clipboard,
		sink,
		usecase.Options{
			WakeWord:       cfg.Listener.WakeWord,
			SleepWord:      cfg.Listener.SleepWord,
			Continuous:     cfg.Listener.Continuous,
			InterimResults: cfg.Listener.InterimResults,
			Language:       cfg.Listener.Language,
		},
		log,
	)

	return Services{Listener: listener, Config: cfg, Log: log}, nil
}
