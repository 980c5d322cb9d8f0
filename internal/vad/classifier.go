package vad

import (
	"encoding/binary"
	"fmt"

	"github.com/maxhawkins/go-webrtcvad"
)

// Classifier wraps a WebRTC VAD instance for stateless per-frame
// speech/non-speech verdicts at a fixed sample rate.
type Classifier struct {
	vad  *webrtcvad.VAD
	rate int
	buf  []byte
}

// NewClassifier creates a classifier with the given aggressiveness mode
// (0-3) for frames at sampleRate.
func NewClassifier(aggressiveness, sampleRate int) (*Classifier, error) {
	if aggressiveness < 0 || aggressiveness > 3 {
		return nil, fmt.Errorf("aggressiveness must be between 0 and 3, got %d", aggressiveness)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create webrtc vad: %w", err)
	}
	if err := v.SetMode(aggressiveness); err != nil {
		return nil, fmt.Errorf("failed to set vad aggressiveness %d: %w", aggressiveness, err)
	}

	return &Classifier{vad: v, rate: sampleRate}, nil
}

// IsSpeech classifies one frame of PCM-16 samples. Errors from the
// underlying engine are returned to the caller, which treats the frame as
// non-speech.
func (c *Classifier) IsSpeech(frame []int16) (bool, error) {
	if len(c.buf) != len(frame)*2 {
		c.buf = make([]byte, len(frame)*2)
	}
	for i, s := range frame {
		binary.LittleEndian.PutUint16(c.buf[i*2:], uint16(s))
	}

	active, err := c.vad.Process(c.rate, c.buf)
	if err != nil {
		return false, fmt.Errorf("vad process failed: %w", err)
	}
	return active, nil
}
