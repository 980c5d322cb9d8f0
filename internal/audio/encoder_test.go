package audio

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// testSamples builds a short sine burst so encoded data is non-trivial.
func testSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(float64(i)*2*math.Pi/160))
	}
	return samples
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in          string
		want        Format
		expectError bool
	}{
		{in: "wav", want: FormatWAV},
		{in: "flac", want: FormatFLAC},
		{in: "mp3", expectError: true},
		{in: "", expectError: true},
		{in: "WAV", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := testSamples(16000)

	if err := Encode(path, samples, 16000, FormatWAV); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, rate, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}

func TestEncodeFLACRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{name: "multiple blocks with remainder", n: flacBlockSize*2 + 137},
		{name: "exactly one block", n: flacBlockSize},
		{name: "one sample past a block boundary", n: flacBlockSize + 1},
		{name: "fewer samples than one block", n: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.flac")
			samples := testSamples(tt.n)

			if err := Encode(path, samples, 16000, FormatFLAC); err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			decoded, rate, err := DecodeFLAC(path)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if rate != 16000 {
				t.Errorf("expected sample rate 16000, got %d", rate)
			}
			if len(decoded) != len(samples) {
				t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
			}
			for i := range samples {
				if decoded[i] != samples[i] {
					t.Fatalf("sample %d: expected %d, got %d", i, samples[i], decoded[i])
				}
			}
		})
	}
}

func TestEncodeNeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := testSamples(480)

	if err := Encode(path, samples, 16000, FormatWAV); err != nil {
		t.Fatalf("first encode failed: %v", err)
	}

	err := Encode(path, samples, 16000, FormatWAV)
	if err == nil {
		t.Fatal("expected error when target file exists")
	}
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("expected fs.ErrExist, got %v", err)
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		samples    []int16
		sampleRate int
		format     Format
	}{
		{name: "empty samples", samples: nil, sampleRate: 16000, format: FormatWAV},
		{name: "zero sample rate", samples: testSamples(10), sampleRate: 0, format: FormatWAV},
		{name: "negative sample rate", samples: testSamples(10), sampleRate: -1, format: FormatFLAC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			err := Encode(path, tt.samples, tt.sampleRate, tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Errorf("expected EncodeError, got %T: %v", err, err)
			}
			if _, statErr := os.Stat(path); !errors.Is(statErr, fs.ErrNotExist) {
				t.Error("rejected encode must not leave a file behind")
			}
		})
	}
}

func TestEncodeFailedWriteLeavesNoFile(t *testing.T) {
	// An unknown format fails after the file was created; the partial file
	// must be cleaned up.
	path := filepath.Join(t.TempDir(), "out.ogg")
	err := Encode(path, testSamples(480), 16000, Format("ogg"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("failed encode must not leave a partial file")
	}
}
