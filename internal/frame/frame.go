// Package frame implements the worker task run once per frame: reset the
// bit-sink, run Prepare, flush predictor and bit-array state, then code the
// frame's residuals under the channel-count/special-code dispatch spec.md
// §4.F describes, finishing with the bit-sink's finalize step.
package frame

import (
	"github.com/sbooth/monkeysaudio/internal/audioformat"
	"github.com/sbooth/monkeysaudio/internal/prepare"
	"github.com/sbooth/monkeysaudio/internal/predictor"
	"github.com/sbooth/monkeysaudio/internal/rangecoder"
)

// levelFor maps the file's compression level onto the predictor package's
// own level enum; the two are kept separate so predictor has no dependency
// on the container-facing audioformat package.
func levelFor(level audioformat.CompressionLevel) predictor.Level {
	switch level {
	case audioformat.Fast:
		return predictor.Fast
	case audioformat.High:
		return predictor.High
	case audioformat.ExtraHigh:
		return predictor.ExtraHigh
	case audioformat.Insane:
		return predictor.Insane
	default:
		return predictor.Normal
	}
}

// Encoder owns one bit-sink, one predictor per channel, and the scratch
// buffers needed to encode a single frame. Exactly one Encoder is created
// per worker slot and reused for the worker's entire lifetime.
type Encoder struct {
	format    audioformat.SampleFormat
	maxBlocks int

	sink       *rangecoder.Encoder
	predictors []*predictor.Channel
	states     []*rangecoder.State
	data       []int32
}

// New allocates an Encoder sized for maxBlocks blocks of format, at the
// given compression level.
func New(format audioformat.SampleFormat, level audioformat.CompressionLevel, maxBlocks int) *Encoder {
	channels := format.Channels
	predictorChannels := channels
	if predictorChannels < 2 {
		predictorChannels = 2
	}

	predictors := make([]*predictor.Channel, predictorChannels)
	states := make([]*rangecoder.State, predictorChannels)
	for i := range predictors {
		predictors[i] = predictor.New(levelFor(level), format.BitsPerSample)
		states[i] = &rangecoder.State{}
	}

	sink := &rangecoder.Encoder{}
	sink.Init(maxBlocks * format.BlockAlign() / 4 * 3)

	return &Encoder{
		format:     format,
		maxBlocks:  maxBlocks,
		sink:       sink,
		predictors: predictors,
		states:     states,
		data:       make([]int32, maxBlocks*predictorChannels),
	}
}

// EncodeFrame codes one frame's worth of PCM bytes and returns the encoded
// bytes. The returned slice is only valid until the next call to
// EncodeFrame on this Encoder.
func (e *Encoder) EncodeFrame(pcm []byte) ([]byte, error) {
	e.sink.Reset()

	result, err := prepare.Prepare(pcm, e.format, e.maxBlocks, e.data)
	if err != nil {
		return nil, err
	}

	e.sink.EncodeUint32LE(result.CRC)
	if result.SpecialCodes != 0 {
		e.sink.EncodeUint32LE(uint32(result.SpecialCodes))
	}

	for i, p := range e.predictors {
		p.Flush()
		e.states[i].Flush()
	}
	e.sink.FlushBitArray()

	nBlocks := len(pcm) / e.format.BlockAlign()

	switch {
	case e.format.Channels == 1:
		if result.SpecialCodes&audioformat.MonoSilence == 0 {
			for i := 0; i < nBlocks; i++ {
				v := e.predictors[0].CompressValue(int64(e.data[i]), 0, false)
				if err := e.sink.EncodeValue(v, e.states[0]); err != nil {
					return nil, err
				}
			}
		}
	case e.format.Channels == 2:
		if err := e.encodeStereo(result.SpecialCodes, nBlocks); err != nil {
			return nil, err
		}
	default:
		channels := e.format.Channels
		for i := 0; i < nBlocks; i++ {
			for ch := 0; ch < channels; ch++ {
				v := e.predictors[ch].CompressValue(int64(e.data[ch*e.maxBlocks+i]), 0, false)
				if err := e.sink.EncodeValue(v, e.states[ch]); err != nil {
					return nil, err
				}
			}
		}
	}

	e.sink.Finalize()
	e.sink.AdvanceToByteBoundary()

	return e.sink.Buffer(), nil
}

func (e *Encoder) encodeStereo(codes audioformat.SpecialCodes, nBlocks int) error {
	encodeX := true
	encodeY := true

	if codes&audioformat.LeftSilence != 0 && codes&audioformat.RightSilence != 0 {
		encodeX, encodeY = false, false
	}
	if codes&audioformat.PseudoStereo != 0 {
		encodeX = false
	}

	x := e.data[0:e.maxBlocks]
	y := e.data[e.maxBlocks : 2*e.maxBlocks]

	switch {
	case encodeX && encodeY:
		var lastX int64
		for i := 0; i < nBlocks; i++ {
			vy := e.predictors[1].CompressValue(int64(y[i]), lastX, i > 0)
			if err := e.sink.EncodeValue(vy, e.states[1]); err != nil {
				return err
			}
			vx := e.predictors[0].CompressValue(int64(x[i]), int64(y[i]), true)
			if err := e.sink.EncodeValue(vx, e.states[0]); err != nil {
				return err
			}
			lastX = int64(x[i])
		}
	case encodeX:
		for i := 0; i < nBlocks; i++ {
			v := e.predictors[0].CompressValue(int64(x[i]), 0, false)
			if err := e.sink.EncodeValue(v, e.states[0]); err != nil {
				return err
			}
		}
	case encodeY:
		for i := 0; i < nBlocks; i++ {
			v := e.predictors[1].CompressValue(int64(y[i]), 0, false)
			if err := e.sink.EncodeValue(v, e.states[1]); err != nil {
				return err
			}
		}
	}

	return nil
}
