package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default configuration must validate, got: %v", err)
	}
}

func TestVADConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config VADConfig
		valid  bool
	}{
		{
			name: "valid config",
			config: VADConfig{
				Aggressiveness:             3,
				MinConsecutiveSpeechFrames: 7,
				SilenceDurationBeforeSave:  3.0,
				TrailingSilenceToKeep:      0.1,
			},
			valid: true,
		},
		{
			name: "least aggressive mode",
			config: VADConfig{
				Aggressiveness:             0,
				MinConsecutiveSpeechFrames: 1,
				SilenceDurationBeforeSave:  1.0,
				TrailingSilenceToKeep:      0,
			},
			valid: true,
		},
		{
			name: "aggressiveness too high",
			config: VADConfig{
				Aggressiveness:             4,
				MinConsecutiveSpeechFrames: 7,
				SilenceDurationBeforeSave:  3.0,
				TrailingSilenceToKeep:      0.1,
			},
			valid: false,
		},
		{
			name: "negative aggressiveness",
			config: VADConfig{
				Aggressiveness:             -1,
				MinConsecutiveSpeechFrames: 7,
				SilenceDurationBeforeSave:  3.0,
				TrailingSilenceToKeep:      0.1,
			},
			valid: false,
		},
		{
			name: "zero minimum speech frames",
			config: VADConfig{
				Aggressiveness:             3,
				MinConsecutiveSpeechFrames: 0,
				SilenceDurationBeforeSave:  3.0,
				TrailingSilenceToKeep:      0.1,
			},
			valid: false,
		},
		{
			name: "zero silence duration",
			config: VADConfig{
				Aggressiveness:             3,
				MinConsecutiveSpeechFrames: 7,
				SilenceDurationBeforeSave:  0,
				TrailingSilenceToKeep:      0.1,
			},
			valid: false,
		},
		{
			name: "trailing silence exceeds silence duration",
			config: VADConfig{
				Aggressiveness:             3,
				MinConsecutiveSpeechFrames: 7,
				SilenceDurationBeforeSave:  3.0,
				TrailingSilenceToKeep:      5.0,
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}

func TestAudioConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config AudioConfig
		valid  bool
	}{
		{name: "16kHz 30ms", config: AudioConfig{SampleRate: 16000, FrameDurationMs: 30}, valid: true},
		{name: "8kHz 10ms", config: AudioConfig{SampleRate: 8000, FrameDurationMs: 10}, valid: true},
		{name: "48kHz 20ms", config: AudioConfig{SampleRate: 48000, FrameDurationMs: 20}, valid: true},
		{name: "unsupported sample rate", config: AudioConfig{SampleRate: 44100, FrameDurationMs: 30}, valid: false},
		{name: "zero sample rate", config: AudioConfig{SampleRate: 0, FrameDurationMs: 30}, valid: false},
		{name: "unsupported frame duration", config: AudioConfig{SampleRate: 16000, FrameDurationMs: 25}, valid: false},
		{name: "zero frame duration", config: AudioConfig{SampleRate: 16000, FrameDurationMs: 0}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}

func TestStorageConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config StorageConfig
		valid  bool
	}{
		{
			name:   "valid flac config",
			config: StorageConfig{OutputFormat: "flac", PrimaryPath: "/mnt/audio", BackupPath: "./backup"},
			valid:  true,
		},
		{
			name:   "valid wav config",
			config: StorageConfig{OutputFormat: "wav", PrimaryPath: "/mnt/audio", BackupPath: "./backup"},
			valid:  true,
		},
		{
			name:   "unknown format",
			config: StorageConfig{OutputFormat: "mp3", PrimaryPath: "/mnt/audio", BackupPath: "./backup"},
			valid:  false,
		},
		{
			name:   "empty primary path",
			config: StorageConfig{OutputFormat: "wav", PrimaryPath: "", BackupPath: "./backup"},
			valid:  false,
		},
		{
			name:   "empty backup path",
			config: StorageConfig{OutputFormat: "wav", PrimaryPath: "/mnt/audio", BackupPath: ""},
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config LoggingConfig
		valid  bool
	}{
		{
			name:   "valid json to stdout",
			config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			valid:  true,
		},
		{
			name:   "valid text to stderr",
			config: LoggingConfig{Level: "debug", Format: "text", Output: "stderr"},
			valid:  true,
		},
		{
			name:   "invalid log level",
			config: LoggingConfig{Level: "trace", Format: "json", Output: "stdout"},
			valid:  false,
		},
		{
			name:   "invalid format",
			config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}

func TestDerivedFrameCounts(t *testing.T) {
	cfg := Default()

	// 16kHz at 30ms frames.
	if got := cfg.Audio.FrameSize(); got != 480 {
		t.Errorf("expected frame size 480 samples, got %d", got)
	}
	if got := cfg.Audio.FrameDuration(); got != 30*time.Millisecond {
		t.Errorf("expected frame duration 30ms, got %v", got)
	}

	// 3s of silence at 30ms frames closes a recording.
	if got := cfg.SilenceThresholdFrames(); got != 100 {
		t.Errorf("expected silence threshold of 100 frames, got %d", got)
	}

	// 0.1s of trailing silence at 30ms frames.
	if got := cfg.TrailingSilenceFrames(); got != 3 {
		t.Errorf("expected 3 trailing silence frames, got %d", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
capture:
  device_name_match: yeti
audio:
  sample_rate: 32000
  frame_duration_ms: 20
vad:
  aggressiveness: 1
  min_consecutive_speech_frames: 5
  silence_duration_before_save: 2.0
  trailing_silence_to_keep: 0.2
storage:
  output_format: wav
  primary_path: /mnt/recordings
  backup_path: ./backup
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Capture.DeviceNameMatch != "yeti" {
		t.Errorf("expected device match 'yeti', got '%s'", cfg.Capture.DeviceNameMatch)
	}
	if cfg.Audio.SampleRate != 32000 {
		t.Errorf("expected sample rate 32000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.VAD.MinConsecutiveSpeechFrames != 5 {
		t.Errorf("expected 5 minimum speech frames, got %d", cfg.VAD.MinConsecutiveSpeechFrames)
	}
	if cfg.Storage.OutputFormat != "wav" {
		t.Errorf("expected wav output, got '%s'", cfg.Storage.OutputFormat)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got '%s'", cfg.Logging.Level)
	}
	if cfg.HTTP.Enabled {
		t.Error("http must stay disabled by default")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file allowed", func(t *testing.T) {
		cfg, err := Load(filepath.Join(dir, "nope.yaml"), true)
		if err != nil {
			t.Fatalf("expected defaults for missing file, got: %v", err)
		}
		if cfg.Capture.DeviceNameMatch != "snowball" {
			t.Errorf("expected default device match, got '%s'", cfg.Capture.DeviceNameMatch)
		}
	})

	t.Run("missing file rejected", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "nope.yaml"), false); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		if err := os.WriteFile(path, []byte("audio: ["), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, false); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		if err := os.WriteFile(path, []byte("vad:\n  aggressiveness: 9\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, false); err == nil {
			t.Error("expected validation error")
		}
	})
}
