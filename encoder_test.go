package ape

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// memFile adapts a byte slice into an io.WriteSeeker, the same role a real
// output file plays when Finish rewinds to back-patch the header region.
type memFile struct {
	data []byte
	pos  int64
}

func (f *memFile) Write(p []byte) (int, error) {
	end := f.pos + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[f.pos:end], p)
	f.pos = end
	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = int64(len(f.data)) + offset
	}
	return f.pos, nil
}

// TestEncodeSilentMonoFile mirrors the one-second-of-silence scenario: a
// single frame containing only a CRC word and the mono-silence special
// code, with a stable, reproducible file layout.
func TestEncodeSilentMonoFile(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 44100, Channels: 1, BitsPerSample: 16}
	enc, err := New(f, Config{Format: format, Level: Normal, TotalBlocks: 44100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pcm := make([]byte, 44100*format.BlockAlign())
	if err := enc.EncodeFrame(pcm); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if !bytes.Equal(f.data[0:4], []byte("MAC ")) {
		t.Errorf("magic = %q, want \"MAC \"", f.data[0:4])
	}
	if len(f.data) < 52+24+4 {
		t.Fatalf("file too short: %d bytes", len(f.data))
	}
}

func TestEncodeStereoMultiFrame(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	frameBlocks := Fast.BlocksPerFrame()
	totalBlocks := int64(frameBlocks) + 50

	enc, err := New(f, Config{Format: format, Level: Fast, TotalBlocks: totalBlocks})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	remaining := totalBlocks
	for remaining > 0 {
		n := int64(frameBlocks)
		if remaining < n {
			n = remaining
		}
		pcm := make([]byte, n*int64(format.BlockAlign()))
		for i := range pcm {
			pcm[i] = byte(i)
		}
		if err := enc.EncodeFrame(pcm); err != nil {
			t.Fatalf("EncodeFrame: %v", err)
		}
		remaining -= n
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if !bytes.Equal(f.data[0:4], []byte("MAC ")) {
		t.Errorf("magic = %q", f.data[0:4])
	}
}

func TestEncodeTooMuchDataIsReported(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 8000, Channels: 1, BitsPerSample: 16}
	enc, err := New(f, Config{Format: format, Level: Fast, TotalBlocks: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frameBlocks := Fast.BlocksPerFrame()
	pcm := make([]byte, int64(frameBlocks)*int64(format.BlockAlign()))

	// TotalBlocks=10 rounds up to exactly one frame of room; submitting a
	// second full frame overruns the declared seek-table size.
	if err := enc.EncodeFrame(pcm); err != nil {
		t.Fatalf("first EncodeFrame: %v", err)
	}
	err = enc.EncodeFrame(pcm)
	if err == nil {
		err = enc.Finish()
	}
	if !errors.Is(err, ErrTooMuchData) {
		t.Errorf("error = %v, want ErrTooMuchData", err)
	}
}

func TestEncodeShortFrameFollowedByNonEmptyFrameIsUndefined(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 44100, Channels: 1, BitsPerSample: 16}
	enc, err := New(f, Config{Format: format, Level: Fast, TotalBlocks: 1000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frameBlocks := Fast.BlocksPerFrame()
	short := make([]byte, int64(frameBlocks/2)*int64(format.BlockAlign()))
	if err := enc.EncodeFrame(short); err != nil {
		t.Fatalf("first (short) EncodeFrame: %v", err)
	}

	nonEmpty := make([]byte, format.BlockAlign())
	if err := enc.EncodeFrame(nonEmpty); !errors.Is(err, ErrUndefined) {
		t.Errorf("error = %v, want ErrUndefined", err)
	}
}

// TestEncodeShortFrameFollowedByFullFrameIsUndefined covers the wider half
// of the policy: the follow-on frame need not itself be short to be
// rejected, only non-empty.
func TestEncodeShortFrameFollowedByFullFrameIsUndefined(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 44100, Channels: 1, BitsPerSample: 16}
	enc, err := New(f, Config{Format: format, Level: Fast, TotalBlocks: 1000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frameBlocks := Fast.BlocksPerFrame()
	short := make([]byte, int64(frameBlocks/2)*int64(format.BlockAlign()))
	if err := enc.EncodeFrame(short); err != nil {
		t.Fatalf("first (short) EncodeFrame: %v", err)
	}

	full := make([]byte, int64(frameBlocks)*int64(format.BlockAlign()))
	if err := enc.EncodeFrame(full); !errors.Is(err, ErrUndefined) {
		t.Errorf("error = %v, want ErrUndefined", err)
	}
}

func TestNewRejectsUnsupportedBitDepth(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 44100, Channels: 2, BitsPerSample: 12}
	if _, err := New(f, Config{Format: format, Level: Normal, TotalBlocks: 1000}); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("error = %v, want ErrUnsupportedBitDepth", err)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	f := &memFile{}
	format := SampleFormat{SampleRate: 44100, Channels: 1, BitsPerSample: 16}
	enc, err := New(f, Config{Format: format, Level: Fast, TotalBlocks: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pcm := make([]byte, int64(Fast.BlocksPerFrame())*int64(format.BlockAlign()))
	if err := enc.EncodeFrame(pcm); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("first Finish: %v", err)
	}
	if err := enc.Finish(); err != nil {
		t.Fatalf("second Finish: %v", err)
	}
}
