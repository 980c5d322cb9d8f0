package audio

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// Format identifies the output container format.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

// flacBlockSize is the number of samples encoded per FLAC frame.
const flacBlockSize = 4096

// ParseFormat parses a configuration string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatWAV, FormatFLAC:
		return Format(s), nil
	default:
		return "", fmt.Errorf("output format must be 'wav' or 'flac', got '%s'", s)
	}
}

// Ext returns the filename extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// EncodeError reports that the encoder rejected the sample buffer, as
// opposed to an I/O failure on the target path.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encoder: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Encode writes a flat mono PCM-16 sample sequence to path in the given
// format. The file is created exclusively: if path already exists the
// write fails instead of overwriting.
func Encode(path string, samples []int16, sampleRate int, format Format) error {
	if len(samples) == 0 {
		return &EncodeError{Format: format, Err: fmt.Errorf("cannot encode empty audio samples")}
	}
	if sampleRate <= 0 {
		return &EncodeError{Format: format, Err: fmt.Errorf("sample rate must be positive, got %d", sampleRate)}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch format {
	case FormatWAV:
		err = encodeWAV(f, samples, sampleRate)
	case FormatFLAC:
		err = encodeFLAC(f, samples, sampleRate)
	default:
		err = &EncodeError{Format: format, Err: fmt.Errorf("unsupported format")}
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// encodeWAV writes the samples as a 16-bit mono PCM WAV stream.
func encodeWAV(ws io.WriteSeeker, samples []int16, sampleRate int) error {
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return &EncodeError{Format: FormatWAV, Err: err}
	}
	if err := enc.Close(); err != nil {
		return &EncodeError{Format: FormatWAV, Err: err}
	}
	return nil
}

// flacStream exposes only Write to the FLAC encoder. mewkiz/flac's
// Encoder.Close closes an io.Closer writer, which the Encode caller still
// owns, and rewrites the stream info through an io.Seeker, which would
// clamp the block size bounds to a short tail frame. The stream info here
// is precomputed and must stand as written.
type flacStream struct {
	w io.Writer
}

func (fs flacStream) Write(p []byte) (int, error) { return fs.w.Write(p) }

// encodeFLAC writes the samples as a lossless mono 16-bit FLAC stream,
// using verbatim subframes in fixed-size blocks. The final frame may hold
// fewer samples than the block size.
func encodeFLAC(w io.Writer, samples []int16, sampleRate int) error {
	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: 16,
		NSamples:      uint64(len(samples)),
		MD5sum:        pcmMD5(samples),
	}

	enc, err := flac.NewEncoder(flacStream{w}, info)
	if err != nil {
		return &EncodeError{Format: FormatFLAC, Err: err}
	}

	for off := 0; off < len(samples); off += flacBlockSize {
		end := off + flacBlockSize
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[off:end]

		sub := &frame.Subframe{
			SubHeader: frame.SubHeader{
				Pred: frame.PredVerbatim,
			},
			Samples:  make([]int32, len(block)),
			NSamples: len(block),
		}
		for i, s := range block {
			sub.Samples[i] = int32(s)
		}

		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: false,
				BlockSize:         uint16(len(block)),
				SampleRate:        uint32(sampleRate),
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{sub},
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			return &EncodeError{Format: FormatFLAC, Err: err}
		}
	}

	if err := enc.Close(); err != nil {
		return &EncodeError{Format: FormatFLAC, Err: err}
	}
	return nil
}

// pcmMD5 computes the FLAC stream MD5 of the unencoded little-endian
// sample bytes.
func pcmMD5(samples []int16) [md5.Size]byte {
	h := md5.New()
	b := make([]byte, 2)
	for _, s := range samples {
		binary.LittleEndian.PutUint16(b, uint16(s))
		h.Write(b)
	}
	var sum [md5.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// DecodeWAV reads a mono PCM-16 WAV file back into samples and its sample
// rate. Used to verify round-trip integrity.
func DecodeWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", buf.Format.NumChannels)
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}
	return samples, buf.Format.SampleRate, nil
}

// DecodeFLAC reads a mono FLAC file back into PCM-16 samples and its
// sample rate.
func DecodeFLAC(path string) ([]int16, int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	defer stream.Close()

	if stream.Info.NChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", stream.Info.NChannels)
	}

	samples := make([]int16, 0, stream.Info.NSamples)
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse frame in %s: %w", path, err)
		}
		for _, s := range fr.Subframes[0].Samples {
			samples = append(samples, int16(s))
		}
	}
	return samples, int(stream.Info.SampleRate), nil
}
