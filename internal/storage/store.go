package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cjb230/audio-recorder/internal/audio"
	"github.com/cjb230/audio-recorder/internal/segment"
)

// WriteErrorKind classifies why a single write attempt failed, so the
// primary-to-fallback decision and the tests can target each branch.
type WriteErrorKind int

const (
	// KindDirMissing means the target directory does not exist. The
	// primary directory is never auto-created.
	KindDirMissing WriteErrorKind = iota
	// KindEncode means the format encoder rejected the sample buffer.
	KindEncode
	// KindIO covers file creation and write failures.
	KindIO
)

func (k WriteErrorKind) String() string {
	switch k {
	case KindDirMissing:
		return "directory missing"
	case KindEncode:
		return "encode failure"
	case KindIO:
		return "io failure"
	default:
		return "unknown"
	}
}

// WriteError reports a failed write attempt against one destination.
type WriteError struct {
	Kind WriteErrorKind
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Config contains the persistence policy settings.
type Config struct {
	// PrimaryPath is the preferred destination directory, typically a
	// network mount. It must already exist at write time.
	PrimaryPath string

	// BackupPath is the local fallback directory, created at startup if
	// absent.
	BackupPath string

	Format     audio.Format
	SampleRate int

	// KeepSilenceFrames is the amount of trailing silence retained when
	// trimming a finished segment.
	KeepSilenceFrames int
}

// Store persists finished segments according to the two-tier write
// strategy.
type Store struct {
	cfg    Config
	logger *slog.Logger

	// now is the clock used for filenames, replaceable in tests.
	now func() time.Time
}

// New creates a Store and bootstraps the backup directory.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.PrimaryPath == "" {
		return nil, fmt.Errorf("primary path cannot be empty")
	}
	if cfg.BackupPath == "" {
		return nil, fmt.Errorf("backup path cannot be empty")
	}
	if err := os.MkdirAll(cfg.BackupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", cfg.BackupPath, err)
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Filename derives the recording filename from a timestamp at second
// resolution. Collisions within the same second are not disambiguated.
func Filename(ts time.Time, format audio.Format) string {
	return fmt.Sprintf("recording_%s.%s", ts.Format("20060102_150405"), format.Ext())
}

// SaveResult describes where a persisted segment ended up.
type SaveResult struct {
	Path     string
	Fallback bool
	Samples  int
}

// Save trims a finished segment and writes it, preferring the primary
// path and falling back to the backup directory on any primary failure.
// Segments that trim down to nothing are dropped silently with a nil
// result and nil error. If both writes fail the returned error describes
// the fallback failure and the segment is lost.
func (s *Store) Save(seg *segment.Segment) (*SaveResult, error) {
	seg = segment.Trim(seg, s.cfg.KeepSilenceFrames)
	if seg == nil {
		return nil, nil
	}

	name := Filename(s.now(), s.cfg.Format)
	samples := seg.PCM()

	primary := filepath.Join(s.cfg.PrimaryPath, name)
	if werr := s.write(s.cfg.PrimaryPath, primary, samples); werr != nil {
		s.logger.Warn("Primary write failed, falling back",
			slog.String("path", primary),
			slog.String("kind", werr.Kind.String()),
			slog.String("error", werr.Err.Error()),
		)

		fallback := filepath.Join(s.cfg.BackupPath, name)
		if werr := s.write(s.cfg.BackupPath, fallback, samples); werr != nil {
			return nil, fmt.Errorf("fallback write failed, segment lost: %w", werr)
		}
		s.logger.Info("Saved recording to backup location", slog.String("path", fallback))
		return &SaveResult{Path: fallback, Fallback: true, Samples: len(samples)}, nil
	}

	s.logger.Info("Saved recording to primary location", slog.String("path", primary))
	return &SaveResult{Path: primary, Samples: len(samples)}, nil
}

// write performs one write attempt against a single destination and
// classifies any failure.
func (s *Store) write(dir, path string, samples []int16) *WriteError {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		return &WriteError{Kind: KindDirMissing, Path: path, Err: err}
	}

	if err := audio.Encode(path, samples, s.cfg.SampleRate, s.cfg.Format); err != nil {
		kind := KindIO
		var encErr *audio.EncodeError
		if errors.As(err, &encErr) {
			kind = KindEncode
		}
		return &WriteError{Kind: kind, Path: path, Err: err}
	}
	return nil
}
