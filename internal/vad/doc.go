// Package vad provides per-frame voice activity detection using the
// WebRTC VAD engine. Aggressiveness ranges from 0 (least aggressive about
// filtering out non-speech) to 3 (most aggressive).
package vad
