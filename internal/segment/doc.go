// Package segment implements the speech segmentation state machine.
// It converts a stream of per-frame speech/silence verdicts into bounded
// utterance segments with pre-roll capture, onset hysteresis, and
// trailing-silence trimming.
package segment
