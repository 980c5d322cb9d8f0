package segment

import (
	"fmt"
)

// Frame is a fixed-length block of 16-bit PCM samples, the atomic unit of
// classification. Every frame fed to the state machine has the same length.
type Frame []int16

// Segment is a finished ordered run of frames produced by the state machine.
type Segment struct {
	Frames []Frame

	// HadSpeech reports whether any frame in the segment was classified as
	// speech. Entry into recording always sets it, but callers still check
	// it before persisting.
	HadSpeech bool

	// TrailingSilence is the number of consecutive silence frames at the
	// tail of Frames when the segment was closed. Trim uses it to know how
	// much tail is safe to cut.
	TrailingSilence int
}

// NumSamples returns the total sample count across all frames.
func (s *Segment) NumSamples() int {
	n := 0
	for _, f := range s.Frames {
		n += len(f)
	}
	return n
}

// PCM flattens the segment into a single sample slice for encoding.
func (s *Segment) PCM() []int16 {
	out := make([]int16, 0, s.NumSamples())
	for _, f := range s.Frames {
		out = append(out, f...)
	}
	return out
}

// State is the full per-session state of the segmenter, passed into and
// returned from Step as a value. The zero value is the idle state.
type State struct {
	// Recording is true once speech onset has been confirmed.
	Recording bool

	// PreBuffer holds the frames of the current uninterrupted speech run
	// while onset evidence is still building. A single non-speech frame
	// discards it entirely.
	PreBuffer []Frame

	// Frames is the current segment under construction. Valid only while
	// Recording.
	Frames []Frame

	// HadSpeech is true if any speech frame was observed in the current
	// segment.
	HadSpeech bool

	// SpeechRun counts consecutive speech frames while not recording.
	SpeechRun int

	// SilenceRun counts consecutive silence frames while recording.
	SilenceRun int
}

// Config holds the frame-count thresholds of the state machine. All values
// are derived once at startup from the duration-based configuration.
type Config struct {
	// MinSpeechFrames is the number of consecutive speech frames required
	// to confirm onset and start a segment.
	MinSpeechFrames int

	// CloseSilenceFrames is the number of consecutive silence frames that
	// closes a segment.
	CloseSilenceFrames int

	// KeepSilenceFrames is the number of trailing silence frames retained
	// by Trim for natural-sounding playback.
	KeepSilenceFrames int
}

// Validate checks that the thresholds are usable.
func (c Config) Validate() error {
	if c.MinSpeechFrames < 1 {
		return fmt.Errorf("min speech frames must be at least 1, got %d", c.MinSpeechFrames)
	}
	if c.CloseSilenceFrames < 1 {
		return fmt.Errorf("close silence frames must be at least 1, got %d", c.CloseSilenceFrames)
	}
	if c.KeepSilenceFrames < 0 {
		return fmt.Errorf("keep silence frames cannot be negative, got %d", c.KeepSilenceFrames)
	}
	return nil
}

// Step advances the state machine by one (frame, verdict) pair. It returns
// the new state and, when the incoming frame completed a segment, the
// finished segment. The returned segment is untrimmed; callers pass it
// through Trim before persisting.
//
// Transition rules:
//
//   - not recording, speech: the frame joins the pre-buffer and the speech
//     run grows. Reaching MinSpeechFrames confirms onset: the whole
//     pre-buffer (this frame included) seeds the new segment.
//   - not recording, silence: the speech run resets and the pre-buffer is
//     discarded wholesale. A momentary dropout restarts arming from zero.
//   - recording, speech: the silence run resets and the frame is appended.
//   - recording, silence: the frame is appended and the silence run grows.
//     Reaching CloseSilenceFrames closes the segment and resets to idle.
func (c Config) Step(st State, frame Frame, isSpeech bool) (State, *Segment) {
	if isSpeech {
		if st.Recording {
			st.SilenceRun = 0
			st.HadSpeech = true
			st.Frames = append(st.Frames, frame)
			return st, nil
		}

		st.SpeechRun++
		st.PreBuffer = append(st.PreBuffer, frame)
		if st.SpeechRun >= c.MinSpeechFrames {
			st.Recording = true
			st.HadSpeech = true
			st.Frames = st.PreBuffer
			st.PreBuffer = nil
			st.SpeechRun = 0
			st.SilenceRun = 0
		}
		return st, nil
	}

	// Non-speech verdict.
	st.SpeechRun = 0
	if !st.Recording {
		st.PreBuffer = nil
		return st, nil
	}

	st.Frames = append(st.Frames, frame)
	st.SilenceRun++
	if st.SilenceRun < c.CloseSilenceFrames {
		return st, nil
	}

	seg := &Segment{
		Frames:          st.Frames,
		HadSpeech:       st.HadSpeech,
		TrailingSilence: st.SilenceRun,
	}
	return State{}, seg
}

// Flush finalizes an in-progress segment without waiting for the closing
// silence run, used when recording is interrupted externally. It returns
// the idle state and the segment, or nil if nothing worth keeping was in
// flight.
func (c Config) Flush(st State) (State, *Segment) {
	if !st.Recording || len(st.Frames) == 0 || !st.HadSpeech {
		return State{}, nil
	}
	seg := &Segment{
		Frames:          st.Frames,
		HadSpeech:       true,
		TrailingSilence: st.SilenceRun,
	}
	return State{}, seg
}

// Trim cuts excess trailing silence from a finished segment, keeping at
// most keep frames of tail silence. Segments of one frame or less after
// trimming are noise and are dropped by returning nil. Trim is idempotent:
// the trailing silence of its result never exceeds keep.
func Trim(seg *Segment, keep int) *Segment {
	if seg == nil {
		return nil
	}
	if seg.TrailingSilence > keep {
		cut := seg.TrailingSilence - keep
		seg.Frames = seg.Frames[:len(seg.Frames)-cut]
		seg.TrailingSilence = keep
	}
	if len(seg.Frames) <= 1 {
		return nil
	}
	return seg
}
