package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cjb230/audio-recorder/internal/audio"
	"github.com/cjb230/audio-recorder/internal/capture"
	"github.com/cjb230/audio-recorder/internal/config"
	"github.com/cjb230/audio-recorder/internal/metrics"
	"github.com/cjb230/audio-recorder/internal/recorder"
	"github.com/cjb230/audio-recorder/internal/segment"
	"github.com/cjb230/audio-recorder/internal/server"
	"github.com/cjb230/audio-recorder/internal/storage"
	"github.com/cjb230/audio-recorder/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "audio-recorder"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration; the built-in defaults apply when the default
	// config file is absent
	cfg, err := config.Load(*configPath, *configPath == defaultConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.String("device_name_match", cfg.Capture.DeviceNameMatch),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("frame_duration_ms", cfg.Audio.FrameDurationMs),
		slog.Int("vad_aggressiveness", cfg.VAD.Aggressiveness),
		slog.Int("min_consecutive_speech_frames", cfg.VAD.MinConsecutiveSpeechFrames),
		slog.Float64("silence_duration_before_save", cfg.VAD.SilenceDurationBeforeSave),
		slog.Float64("trailing_silence_to_keep", cfg.VAD.TrailingSilenceToKeep),
		slog.String("output_format", cfg.Storage.OutputFormat),
		slog.String("primary_path", cfg.Storage.PrimaryPath),
		slog.String("backup_path", cfg.Storage.BackupPath),
		slog.String("log_level", cfg.Logging.Level),
	)

	if err := run(cfg, logger); err != nil {
		if errors.Is(err, capture.ErrDeviceNotFound) {
			logger.Error("No matching input device", slog.String("error", err.Error()))
		} else {
			logger.Error("Recorder failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}

	logger.Info("Service stopped")
}

// run wires the components together and executes the capture loop. The
// portaudio handle and the capture stream are released on every exit
// path, including loop failures.
func run(cfg *config.Config, logger *slog.Logger) error {
	// Cancel on interrupt; the loop observes this between iterations
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	format, err := audio.ParseFormat(cfg.Storage.OutputFormat)
	if err != nil {
		return err
	}

	// The store bootstraps the backup directory
	store, err := storage.New(storage.Config{
		PrimaryPath:       cfg.Storage.PrimaryPath,
		BackupPath:        cfg.Storage.BackupPath,
		Format:            format,
		SampleRate:        cfg.Audio.SampleRate,
		KeepSilenceFrames: cfg.TrailingSilenceFrames(),
	}, logger)
	if err != nil {
		return err
	}

	classifier, err := vad.NewClassifier(cfg.VAD.Aggressiveness, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}

	if err := capture.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := capture.Terminate(); err != nil {
			logger.Error("Error terminating portaudio", slog.String("error", err.Error()))
		}
	}()

	stream, err := capture.OpenInput(logger, cfg.Capture.DeviceNameMatch,
		cfg.Audio.SampleRate, cfg.Audio.FrameSize())
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Error("Error closing capture stream", slog.String("error", err.Error()))
		}
	}()

	rec := recorder.New(recorder.Config{
		Segmenter: segment.Config{
			MinSpeechFrames:    cfg.VAD.MinConsecutiveSpeechFrames,
			CloseSilenceFrames: cfg.SilenceThresholdFrames(),
			KeepSilenceFrames:  cfg.TrailingSilenceFrames(),
		},
		SampleRate: cfg.Audio.SampleRate,
	}, stream, classifier, store, logger, appMetrics)

	// Start the HTTP monitoring server (if enabled)
	if cfg.HTTP.Enabled {
		httpServer := server.NewHTTPServer(cfg.HTTP, logger, cfg, rec, appMetrics)
		if err := httpServer.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := httpServer.Stop(shutdownCtx); err != nil {
				logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
			}
		}()
	}

	if err := rec.Run(ctx); err != nil {
		return err
	}

	// Final statistics
	stats := rec.Stats()
	logger.Info("Final recorder statistics",
		slog.Uint64("frames_processed", stats.FramesProcessed),
		slog.Uint64("speech_frames", stats.SpeechFrames),
		slog.Uint64("segments_saved", stats.SegmentsSaved),
		slog.Uint64("segments_fallback", stats.SegmentsFallback),
		slog.Uint64("segments_lost", stats.SegmentsLost),
	)

	return nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
