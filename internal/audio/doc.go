// Package audio handles encoding of mono PCM-16 sample sequences into
// WAV and FLAC container files. Files are always created exclusively so an
// existing recording is never overwritten.
package audio
