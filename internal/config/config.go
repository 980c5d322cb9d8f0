package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete recorder configuration
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Audio   AudioConfig   `yaml:"audio"`
	VAD     VADConfig     `yaml:"vad"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// CaptureConfig contains input device selection parameters
type CaptureConfig struct {
	// DeviceNameMatch is a case-insensitive substring matched against the
	// enumerated input device names. The first match wins.
	DeviceNameMatch string `yaml:"device_name_match"`
}

// AudioConfig contains PCM stream parameters
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate"`
	FrameDurationMs int `yaml:"frame_duration_ms"`
}

// VADConfig contains voice activity detection and segmentation parameters
type VADConfig struct {
	// Aggressiveness sets the WebRTC VAD mode: 0 is the least aggressive
	// about filtering out non-speech, 3 is the most aggressive.
	Aggressiveness int `yaml:"aggressiveness"`

	// MinConsecutiveSpeechFrames is the onset hysteresis: this many
	// speech-classified frames in a row confirm that a recording starts.
	MinConsecutiveSpeechFrames int `yaml:"min_consecutive_speech_frames"`

	// SilenceDurationBeforeSave is how long silence must last, in
	// seconds, before the current recording is closed and saved.
	SilenceDurationBeforeSave float64 `yaml:"silence_duration_before_save"`

	// TrailingSilenceToKeep is the amount of closing silence, in seconds,
	// retained at the end of a saved recording.
	TrailingSilenceToKeep float64 `yaml:"trailing_silence_to_keep"`
}

// StorageConfig contains output format and destination paths
type StorageConfig struct {
	OutputFormat string `yaml:"output_format"` // "wav" or "flac"
	PrimaryPath  string `yaml:"primary_path"`
	BackupPath   string `yaml:"backup_path"`
}

// HTTPConfig contains the optional monitoring server configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the built-in configuration, matching a Blue Snowball
// microphone and writing FLAC recordings to a network share with a local
// backup directory.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			DeviceNameMatch: "snowball",
		},
		Audio: AudioConfig{
			SampleRate:      16000,
			FrameDurationMs: 30,
		},
		VAD: VADConfig{
			Aggressiveness:             3,
			MinConsecutiveSpeechFrames: 7,
			SilenceDurationBeforeSave:  3.0,
			TrailingSilenceToKeep:      0.1,
		},
		Storage: StorageConfig{
			OutputFormat: "flac",
			PrimaryPath:  "/mnt/smbhome/audio_in/",
			BackupPath:   "./backup_audio/",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads a YAML configuration file over the defaults. A missing file
// is not an error when allowMissing is set, so the recorder can run with
// built-in defaults alone.
func Load(path string, allowMissing bool) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			if verr := config.Validate(); verr != nil {
				return nil, fmt.Errorf("config validation failed: %w", verr)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	if c.DeviceNameMatch == "" {
		return fmt.Errorf("device_name_match cannot be empty")
	}
	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	switch a.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return fmt.Errorf("sample_rate must be one of 8000, 16000, 32000 or 48000 Hz, got %d", a.SampleRate)
	}

	// The WebRTC VAD engine only accepts 10, 20 or 30 ms frames.
	switch a.FrameDurationMs {
	case 10, 20, 30:
	default:
		return fmt.Errorf("frame_duration_ms must be 10, 20 or 30, got %d", a.FrameDurationMs)
	}

	return nil
}

// Validate validates VAD configuration
func (v *VADConfig) Validate() error {
	if v.Aggressiveness < 0 || v.Aggressiveness > 3 {
		return fmt.Errorf("aggressiveness must be between 0 and 3, got %d", v.Aggressiveness)
	}

	if v.MinConsecutiveSpeechFrames < 1 {
		return fmt.Errorf("min_consecutive_speech_frames must be at least 1, got %d", v.MinConsecutiveSpeechFrames)
	}

	if v.SilenceDurationBeforeSave <= 0 {
		return fmt.Errorf("silence_duration_before_save must be positive, got %f", v.SilenceDurationBeforeSave)
	}

	if v.TrailingSilenceToKeep < 0 {
		return fmt.Errorf("trailing_silence_to_keep cannot be negative, got %f", v.TrailingSilenceToKeep)
	}

	if v.TrailingSilenceToKeep > v.SilenceDurationBeforeSave {
		return fmt.Errorf("trailing_silence_to_keep (%f) cannot exceed silence_duration_before_save (%f)",
			v.TrailingSilenceToKeep, v.SilenceDurationBeforeSave)
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	if s.OutputFormat != "wav" && s.OutputFormat != "flac" {
		return fmt.Errorf("output_format must be 'wav' or 'flac', got '%s'", s.OutputFormat)
	}

	if s.PrimaryPath == "" {
		return fmt.Errorf("primary_path cannot be empty")
	}

	if s.BackupPath == "" {
		return fmt.Errorf("backup_path cannot be empty")
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// FrameSize returns the number of samples per frame.
func (a *AudioConfig) FrameSize() int {
	return a.SampleRate * a.FrameDurationMs / 1000
}

// FrameDuration returns the frame duration as a time.Duration.
func (a *AudioConfig) FrameDuration() time.Duration {
	return time.Duration(a.FrameDurationMs) * time.Millisecond
}

// SilenceThresholdFrames returns the number of consecutive silence frames
// that closes a recording.
func (c *Config) SilenceThresholdFrames() int {
	return int(c.VAD.SilenceDurationBeforeSave * 1000 / float64(c.Audio.FrameDurationMs))
}

// TrailingSilenceFrames returns the number of trailing silence frames
// kept at the end of a saved recording.
func (c *Config) TrailingSilenceFrames() int {
	return int(c.VAD.TrailingSilenceToKeep * 1000 / float64(c.Audio.FrameDurationMs))
}
