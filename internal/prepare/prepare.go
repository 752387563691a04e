// Package prepare unpacks one frame's raw PCM bytes into per-channel int32
// streams, accumulates the frame's CRC, detects the special-code fast
// paths, and performs mid/side stereo decorrelation.
package prepare

import (
	"math"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
	"github.com/sbooth/monkeysaudio/internal/crc"
)

// Result is what one call to Prepare hands back to the frame encoder.
type Result struct {
	SpecialCodes audioformat.SpecialCodes
	CRC          uint32
}

// Prepare unpacks nBlocks blocks of pcm into data, laid out as
// data[channel*maxBlocks+i], and returns the frame's CRC and special-code
// bitmap. For stereo input, channel 0 and channel 1 of data hold X (side,
// L-R) and Y (mid, R+(X>>1)) after decorrelation rather than raw
// left/right.
func Prepare(pcm []byte, format audioformat.SampleFormat, maxBlocks int, data []int32) (Result, error) {
	nBlocks := len(pcm) / format.BlockAlign()
	channels := format.Channels

	raw := make([][]int32, channels)
	for ch := range raw {
		raw[ch] = data[ch*maxBlocks : ch*maxBlocks+nBlocks]
	}

	var runningCRC uint32
	bytesPerSample := format.BitsPerSample / 8

	for i := 0; i < nBlocks; i++ {
		base := i * format.BlockAlign()
		for ch := 0; ch < channels; ch++ {
			off := base + ch*bytesPerSample
			sample := unpackSample(pcm[off:off+bytesPerSample], format)
			raw[ch][i] = sample
		}
	}

	runningCRC = crc.Update(0, pcm)

	result := Result{CRC: runningCRC}

	switch channels {
	case 1:
		if allZero(raw[0]) {
			result.SpecialCodes |= audioformat.MonoSilence
		}
	case 2:
		leftSilent := allZero(raw[0])
		rightSilent := allZero(raw[1])
		if leftSilent {
			result.SpecialCodes |= audioformat.LeftSilence
		}
		if rightSilent {
			result.SpecialCodes |= audioformat.RightSilence
		}

		x := raw[0]
		y := raw[1]
		for i := range x {
			l, r := x[i], y[i]
			xv := l - r
			yv := r + (xv >> 1)
			x[i] = xv
			y[i] = yv
		}
		if allZero(x) {
			result.SpecialCodes |= audioformat.PseudoStereo
		}
	}

	return result, nil
}

func allZero(samples []int32) bool {
	for _, s := range samples {
		if s != 0 {
			return false
		}
	}
	return true
}

// unpackSample converts bytesPerSample little-endian bytes (readers
// normalize big-endian containers to little-endian before this point, per
// SPEC_FULL.md §4.I) into a signed int32. 8-bit input is treated as WAV's
// unsigned convention with a 128 bias; all other depths are already signed.
func unpackSample(b []byte, format audioformat.SampleFormat) int32 {
	switch format.BitsPerSample {
	case 8:
		return int32(b[0]) - 128
	case 16:
		return int32(int16(uint16(b[0]) | uint16(b[1])<<8))
	case 24:
		v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		return int32(v)
	case 32:
		if format.Float {
			return normalizeFloat32(b)
		}
		return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
	default:
		return 0
	}
}

// normalizeFloat32 maps an IEEE-754 float32 PCM sample into the same
// fixed-point integer residual space the predictor operates in. The
// reference float-compression transform was not present in the retrieved
// sources; this module uses a Q23 fixed-point scale, deterministic and
// symmetric with a decoder that reverses it the same way (see DESIGN.md).
func normalizeFloat32(b []byte) int32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	f := math.Float32frombits(bits)
	scaled := float64(f) * float64(int32(1)<<23)
	const limit = float64(1 << 30)
	if scaled > limit {
		scaled = limit
	}
	if scaled < -limit {
		scaled = -limit
	}
	return int32(scaled)
}
