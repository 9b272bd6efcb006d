package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration. Values are resolved in three layers:
// built-in defaults, an optional YAML file, then environment overrides.
type Config struct {
	Listener ListenerConfig `yaml:"listener"`
	Deepgram DeepgramConfig `yaml:"deepgram"`
	Audio    AudioConfig    `yaml:"audio"`
	Rules    RulesConfig    `yaml:"rules"`
	Log      LogConfig      `yaml:"log"`
}

type ListenerConfig struct {
	WakeWord       string `yaml:"wake_word"`
	SleepWord      string `yaml:"sleep_word"`
	Continuous     bool   `yaml:"continuous"`
	InterimResults bool   `yaml:"interim_results"`
	Language       string `yaml:"language"`
}

type DeepgramConfig struct {
	APIKey      string `yaml:"api_key"`
	APIBaseURL  string `yaml:"api_base_url"`
	Model       string `yaml:"model"`
	SmartFormat bool   `yaml:"smart_format"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	ChunkSize       int    `yaml:"chunk_size"`
}

type RulesConfig struct {
	Path           string `yaml:"path"`
	IterationLimit int    `yaml:"iteration_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listener: ListenerConfig{
			WakeWord:       "hi",
			SleepWord:      "bye",
			Continuous:     true,
			InterimResults: true,
			Language:       "en-US",
		},
		Deepgram: DeepgramConfig{
			APIBaseURL:  "https://api.deepgram.com/v1",
			Model:       "nova-2",
			SmartFormat: true,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
			Channels:        1,
			ChunkSize:       4096,
		},
		Rules: RulesConfig{
			IterationLimit: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load resolves configuration from defaults, the config file, and environment
// variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	path, err := filePath()
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		contents, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(contents, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %q: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// Optional file; defaults and environment carry the load.
		default:
			return Config{}, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

func filePath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("WAKESCRIBE_CONFIG")); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("could not determine home directory")
	}
	return filepath.Join(home, ".config", "wakescribe", "config.yaml"), nil
}

func applyEnv(cfg *Config) {
	cfg.Listener.WakeWord = envOrDefault("WAKESCRIBE_WAKE_WORD", cfg.Listener.WakeWord)
	cfg.Listener.SleepWord = envOrDefault("WAKESCRIBE_SLEEP_WORD", cfg.Listener.SleepWord)
	cfg.Listener.Continuous = envOrDefaultBool("WAKESCRIBE_CONTINUOUS", cfg.Listener.Continuous)
	cfg.Listener.InterimResults = envOrDefaultBool("WAKESCRIBE_INTERIM_RESULTS", cfg.Listener.InterimResults)
	cfg.Listener.Language = envOrDefault("WAKESCRIBE_LANGUAGE", cfg.Listener.Language)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)

	cfg.Audio.RecorderCommand = envOrDefault("WAKESCRIBE_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("WAKESCRIBE_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = envOrDefault("WAKESCRIBE_AUDIO_INPUT_DEVICE", cfg.Audio.InputDevice)
	cfg.Audio.SampleRate = envOrDefaultInt("WAKESCRIBE_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("WAKESCRIBE_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.ChunkSize = envOrDefaultInt("WAKESCRIBE_AUDIO_CHUNK_SIZE", cfg.Audio.ChunkSize)

	cfg.Rules.Path = envOrDefault("WAKESCRIBE_RULES_FILE", cfg.Rules.Path)
	cfg.Rules.IterationLimit = envOrDefaultInt("WAKESCRIBE_RULE_ITERATION_LIMIT", cfg.Rules.IterationLimit)

	cfg.Log.Level = envOrDefault("WAKESCRIBE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("WAKESCRIBE_LOG_FORMAT", cfg.Log.Format)
}

func (c *Config) normalize() {
	defaults := Default()
	if strings.TrimSpace(c.Listener.WakeWord) == "" {
		c.Listener.WakeWord = defaults.Listener.WakeWord
	}
	if strings.TrimSpace(c.Listener.SleepWord) == "" {
		c.Listener.SleepWord = defaults.Listener.SleepWord
	}
	if strings.TrimSpace(c.Listener.Language) == "" {
		c.Listener.Language = defaults.Listener.Language
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = defaults.Audio.Channels
	}
	if c.Audio.ChunkSize < 256 {
		c.Audio.ChunkSize = defaults.Audio.ChunkSize
	}
	if c.Rules.IterationLimit <= 0 {
		c.Rules.IterationLimit = defaults.Rules.IterationLimit
	}
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
