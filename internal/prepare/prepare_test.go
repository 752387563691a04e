package prepare

import (
	"testing"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

func TestPrepareMonoSilence(t *testing.T) {
	format := audioformat.SampleFormat{SampleRate: 44100, Channels: 1, BitsPerSample: 16}
	pcm := make([]byte, 16*2) // 16 silent blocks
	data := make([]int32, 16)

	result, err := Prepare(pcm, format, 16, data)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if result.SpecialCodes&audioformat.MonoSilence == 0 {
		t.Errorf("SpecialCodes = %#x, want MonoSilence set", result.SpecialCodes)
	}
}

func TestPrepareStereoLeftSilence(t *testing.T) {
	format := audioformat.SampleFormat{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	const blocks = 4
	pcm := make([]byte, blocks*4)
	for i := 0; i < blocks; i++ {
		// left=0, right=100
		pcm[i*4+2] = 100
	}
	data := make([]int32, blocks*2)

	result, err := Prepare(pcm, format, blocks, data)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if result.SpecialCodes&audioformat.LeftSilence == 0 {
		t.Errorf("SpecialCodes = %#x, want LeftSilence set", result.SpecialCodes)
	}
	if result.SpecialCodes&audioformat.RightSilence != 0 {
		t.Errorf("SpecialCodes = %#x, want RightSilence clear", result.SpecialCodes)
	}
}

func TestPrepareStereoDecorrelation(t *testing.T) {
	format := audioformat.SampleFormat{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	pcm := make([]byte, 4)
	// left = 100, right = 40
	le := func(v int16) (byte, byte) { return byte(v), byte(v >> 8) }
	pcm[0], pcm[1] = le(100)
	pcm[2], pcm[3] = le(40)
	data := make([]int32, 2)

	if _, err := Prepare(pcm, format, 1, data); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	wantX := int32(100 - 40)
	wantY := int32(40 + (wantX >> 1))
	if data[0] != wantX {
		t.Errorf("X = %d, want %d", data[0], wantX)
	}
	if data[1] != wantY {
		t.Errorf("Y = %d, want %d", data[1], wantY)
	}
}

func TestUnpackSample8BitWAVUnsigned(t *testing.T) {
	format := audioformat.SampleFormat{BitsPerSample: 8}
	tests := []struct {
		b    byte
		want int32
	}{
		{0x00, -128},
		{0x80, 0},
		{0xFF, 127},
	}
	for _, tt := range tests {
		if got := unpackSample([]byte{tt.b}, format); got != tt.want {
			t.Errorf("unpackSample(%#x) = %d, want %d", tt.b, got, tt.want)
		}
	}
}
