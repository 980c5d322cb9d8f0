package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cjb230/audio-recorder/internal/metrics"
	"github.com/cjb230/audio-recorder/internal/segment"
	"github.com/cjb230/audio-recorder/internal/storage"
)

// FrameSource yields fixed-duration PCM frames, blocking until each frame
// is available.
type FrameSource interface {
	ReadFrame() ([]int16, error)
}

// Classifier returns a per-frame speech/non-speech verdict. A returned
// error is folded into a non-speech verdict by the loop.
type Classifier interface {
	IsSpeech(frame []int16) (bool, error)
}

// Sink persists a finished segment. A nil result with nil error means the
// segment was dropped as noise.
type Sink interface {
	Save(seg *segment.Segment) (*storage.SaveResult, error)
}

// Config contains the loop parameters derived from the application
// configuration at startup.
type Config struct {
	Segmenter  segment.Config
	SampleRate int
}

// Stats is a point-in-time snapshot of the loop counters, served by the
// monitoring endpoint.
type Stats struct {
	StartedAt         time.Time `json:"started_at"`
	FramesProcessed   uint64    `json:"frames_processed"`
	SpeechFrames      uint64    `json:"speech_frames"`
	ClassifierErrors  uint64    `json:"classifier_errors"`
	SegmentsCompleted uint64    `json:"segments_completed"`
	SegmentsSaved     uint64    `json:"segments_saved"`
	SegmentsFallback  uint64    `json:"segments_fallback"`
	SegmentsDropped   uint64    `json:"segments_dropped"`
	SegmentsLost      uint64    `json:"segments_lost"`
	Recording         bool      `json:"recording"`
}

// Recorder owns the session state and runs the capture loop. All state is
// mutated by the single loop goroutine; the mutex only guards the stats
// snapshot read by the monitoring server.
type Recorder struct {
	source     FrameSource
	classifier Classifier
	sink       Sink
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu    sync.RWMutex
	stats Stats
}

// New creates a Recorder. The metrics handle may be nil when Prometheus
// reporting is not wanted, e.g. in tests.
func New(cfg Config, source FrameSource, classifier Classifier, sink Sink,
	logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{
		source:     source,
		classifier: classifier,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
	}
}

// Run executes the read-classify-step-persist cycle until ctx is
// cancelled or the frame source fails. On cancellation an in-progress
// speech segment is finalized and persisted before returning. Persistence
// failures never stop the loop; only a frame source error does, and even
// then the in-flight segment is flushed first.
func (r *Recorder) Run(ctx context.Context) error {
	r.mu.Lock()
	r.stats.StartedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("Listening for speech")

	var st segment.State
	for {
		select {
		case <-ctx.Done():
			r.flush(st)
			r.logger.Info("Recording stopped")
			return nil
		default:
		}

		frame, err := r.source.ReadFrame()
		if err != nil {
			r.flush(st)
			return err
		}

		isSpeech, cerr := r.classifier.IsSpeech(frame)
		if cerr != nil {
			// Classifier instability degrades to silence handling.
			isSpeech = false
			r.logger.Debug("Classifier failed, treating frame as non-speech",
				slog.String("error", cerr.Error()))
			if r.metrics != nil {
				r.metrics.RecordClassifierError()
			}
		}

		wasRecording := st.Recording
		var seg *segment.Segment
		st, seg = r.cfg.Segmenter.Step(st, frame, isSpeech)

		r.observeFrame(isSpeech, cerr != nil, st.Recording)
		if !wasRecording && st.Recording {
			r.logger.Info("Speech confirmed, recording started")
		}
		if seg != nil {
			r.persist(seg)
		}
	}
}

// flush finalizes and persists an in-progress segment on shutdown.
func (r *Recorder) flush(st segment.State) {
	_, seg := r.cfg.Segmenter.Flush(st)
	if seg == nil {
		r.setRecording(false)
		return
	}
	r.logger.Info("Finalizing in-progress recording",
		slog.Int("frames", len(seg.Frames)))
	r.persist(seg)
	r.setRecording(false)
}

// persist hands a completed segment to the sink and accounts for the
// outcome. Segments without confirmed speech are discarded; under the
// transition rules this cannot happen, but the flag is still honored.
func (r *Recorder) persist(seg *segment.Segment) {
	if r.metrics != nil {
		r.metrics.RecordSegmentCompleted()
	}
	r.mu.Lock()
	r.stats.SegmentsCompleted++
	r.mu.Unlock()

	if !seg.HadSpeech {
		r.logger.Debug("Discarding segment without speech",
			slog.Int("frames", len(seg.Frames)))
		return
	}

	res, err := r.sink.Save(seg)
	switch {
	case err != nil:
		r.logger.Error("Recording lost", slog.String("error", err.Error()))
		if r.metrics != nil {
			r.metrics.RecordSegmentLost()
		}
		r.mu.Lock()
		r.stats.SegmentsLost++
		r.mu.Unlock()
	case res == nil:
		if r.metrics != nil {
			r.metrics.RecordSegmentDropped()
		}
		r.mu.Lock()
		r.stats.SegmentsDropped++
		r.mu.Unlock()
	default:
		destination := "primary"
		if res.Fallback {
			destination = "fallback"
		}
		if r.metrics != nil {
			duration := float64(res.Samples) / float64(r.cfg.SampleRate)
			r.metrics.RecordSegmentSaved(destination, duration)
		}
		r.mu.Lock()
		r.stats.SegmentsSaved++
		if res.Fallback {
			r.stats.SegmentsFallback++
		}
		r.mu.Unlock()
	}
}

// observeFrame updates frame counters and the recording gauge.
func (r *Recorder) observeFrame(isSpeech, classifierErr, recording bool) {
	if r.metrics != nil {
		r.metrics.RecordFrame(isSpeech)
		r.metrics.SetRecording(recording)
	}
	r.mu.Lock()
	r.stats.FramesProcessed++
	if isSpeech {
		r.stats.SpeechFrames++
	}
	if classifierErr {
		r.stats.ClassifierErrors++
	}
	r.stats.Recording = recording
	r.mu.Unlock()
}

func (r *Recorder) setRecording(recording bool) {
	if r.metrics != nil {
		r.metrics.SetRecording(recording)
	}
	r.mu.Lock()
	r.stats.Recording = recording
	r.mu.Unlock()
}

// Stats returns a snapshot of the loop counters.
func (r *Recorder) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}
