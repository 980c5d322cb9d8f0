package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// ErrDeviceNotFound is returned when no input device name contains the
// configured substring. It is fatal at startup.
var ErrDeviceNotFound = errors.New("no matching input device found")

// Initialize prepares the portaudio host API. It must be called once
// before opening a stream, and paired with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return nil
}

// Terminate releases the portaudio host API.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate portaudio: %w", err)
	}
	return nil
}

// FindDeviceIndex returns the index of the first device name containing
// needle, compared case-insensitively, or -1 if none matches. It is a
// pure function so device selection is testable with fixture name lists.
func FindDeviceIndex(names []string, needle string) int {
	needle = strings.ToLower(needle)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), needle) {
			return i
		}
	}
	return -1
}

// ListInputNames returns the enumerated device names in order, so the
// index returned by FindDeviceIndex maps back into the device slice.
func ListInputNames(devices []*portaudio.DeviceInfo) []string {
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	return names
}

// Stream is an open mono capture stream delivering one frame per blocking
// read.
type Stream struct {
	stream *portaudio.Stream
	buf    []int16
	logger *slog.Logger
	device string
}

// OpenInput enumerates input devices, selects the first one whose name
// contains nameMatch, and opens a mono 16-bit capture stream on it with
// frameSize samples per read.
func OpenInput(logger *slog.Logger, nameMatch string, sampleRate, frameSize int) (*Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	idx := FindDeviceIndex(ListInputNames(devices), nameMatch)
	if idx < 0 {
		return nil, fmt.Errorf("%w: no device name contains %q among %d devices",
			ErrDeviceNotFound, nameMatch, len(devices))
	}
	device := devices[idx]

	logger.Info("Input device selected",
		slog.String("device", device.Name),
		slog.Int("index", idx),
		slog.Int("max_input_channels", device.MaxInputChannels),
	)

	buf := make([]int16, frameSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultHighInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: frameSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture stream on %s: %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start capture stream on %s: %w", device.Name, err)
	}

	return &Stream{
		stream: stream,
		buf:    buf,
		logger: logger,
		device: device.Name,
	}, nil
}

// ReadFrame blocks until one frame of samples is available and returns a
// copy of it. Input overflow is suppressed: the partially stale frame is
// returned rather than an error, matching the capture layer contract.
func (s *Stream) ReadFrame() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		if err == portaudio.InputOverflowed {
			s.logger.Debug("Capture overflow suppressed", slog.String("device", s.device))
		} else {
			return nil, fmt.Errorf("failed to read from capture stream: %w", err)
		}
	}
	frame := make([]int16, len(s.buf))
	copy(frame, s.buf)
	return frame, nil
}

// Close stops and closes the capture stream. Safe to call after a failed
// read.
func (s *Stream) Close() error {
	if err := s.stream.Stop(); err != nil {
		// Still attempt to close; the handle must be released regardless.
		s.logger.Warn("Failed to stop capture stream", slog.String("error", err.Error()))
	}
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("failed to close capture stream: %w", err)
	}
	return nil
}
