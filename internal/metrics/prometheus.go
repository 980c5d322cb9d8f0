package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audio recorder
type Metrics struct {
	// Frame processing metrics
	FramesProcessed  prometheus.Counter
	SpeechFrames     prometheus.Counter
	ClassifierErrors prometheus.Counter

	// Segment metrics
	SegmentsCompleted prometheus.Counter
	SegmentsSaved     *prometheus.CounterVec
	SegmentsDropped   prometheus.Counter
	SegmentsLost      prometheus.Counter
	SegmentDuration   prometheus.Histogram
	Recording         prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Frame processing metrics
		FramesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_frames_processed_total",
			Help: "Total number of audio frames read and classified",
		}),
		SpeechFrames: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_speech_frames_total",
			Help: "Total number of frames classified as speech",
		}),
		ClassifierErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_classifier_errors_total",
			Help: "Total number of classifier failures treated as non-speech",
		}),

		// Segment metrics
		SegmentsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_segments_completed_total",
			Help: "Total number of speech segments closed by the state machine",
		}),
		SegmentsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_segments_saved_total",
			Help: "Total number of segments persisted, by destination",
		}, []string{"destination"}),
		SegmentsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_segments_dropped_total",
			Help: "Total number of segments dropped as noise after trimming",
		}),
		SegmentsLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recorder_segments_lost_total",
			Help: "Total number of segments lost after both write attempts failed",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recorder_segment_duration_seconds",
			Help:    "Duration of persisted speech segments in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
		Recording: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "recorder_recording",
			Help: "Whether a speech segment is currently being recorded (0 or 1)",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recorder_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recorder_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordFrame increments the frame counter and, for speech verdicts, the
// speech frame counter
func (m *Metrics) RecordFrame(isSpeech bool) {
	m.FramesProcessed.Inc()
	if isSpeech {
		m.SpeechFrames.Inc()
	}
}

// RecordClassifierError increments the classifier error counter
func (m *Metrics) RecordClassifierError() {
	m.ClassifierErrors.Inc()
}

// SetRecording reflects the state machine's recording flag
func (m *Metrics) SetRecording(recording bool) {
	if recording {
		m.Recording.Set(1)
	} else {
		m.Recording.Set(0)
	}
}

// RecordSegmentCompleted increments the completed segments counter
func (m *Metrics) RecordSegmentCompleted() {
	m.SegmentsCompleted.Inc()
}

// RecordSegmentSaved records a persisted segment and its duration
func (m *Metrics) RecordSegmentSaved(destination string, durationSeconds float64) {
	m.SegmentsSaved.WithLabelValues(destination).Inc()
	m.SegmentDuration.Observe(durationSeconds)
}

// RecordSegmentDropped increments the dropped segments counter
func (m *Metrics) RecordSegmentDropped() {
	m.SegmentsDropped.Inc()
}

// RecordSegmentLost increments the lost segments counter
func (m *Metrics) RecordSegmentLost() {
	m.SegmentsLost.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
