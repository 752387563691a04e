// Package predictor implements the per-channel prediction cascade: a
// long-term one-tap delay line, a short-term two-coefficient mixer, and a
// chain of adaptive neural filters, each stage feeding its residual to the
// next. The cascade's output residual is what the bit-sink codes.
package predictor

// Level selects the compression-level-dependent shape of the cascade.
type Level int

const (
	Fast Level = iota
	Normal
	High
	ExtraHigh
	Insane
)

// filterSpec names one neural filter layer's order/shift pair.
type filterSpec struct {
	order int
	shift uint
}

func filterSpecsFor(level Level) []filterSpec {
	switch level {
	case Fast:
		return []filterSpec{{16, 11}}
	case Normal:
		return []filterSpec{{16, 11}, {64, 11}}
	case High:
		return []filterSpec{{256, 13}}
	case ExtraHigh:
		return []filterSpec{{32, 10}, {256, 13}}
	case Insane:
		return []filterSpec{{32, 10}, {256, 13}, {16, 11}}
	default:
		return []filterSpec{{16, 11}}
	}
}

func longTermLagFor(level Level) int {
	switch level {
	case Fast:
		return 0
	case Normal:
		return 16
	case High:
		return 64
	case ExtraHigh:
		return 256
	case Insane:
		return 1280
	default:
		return 0
	}
}

// Channel is one channel's full prediction cascade, owned by exactly one
// frame-encoder worker for the lifetime of the file.
type Channel struct {
	elementBits int
	long        *longTerm
	short       shortTerm
	filters     []*NeuralFilter
}

// New builds a cascade sized for the given compression level and sample
// bit depth. bitsPerSample selects the element width (≤24 bits uses 16-bit
// filter elements, 32 bits uses 32-bit elements), mirroring the reference
// encoder's choice between CPredictorCompressNormal<int,short> and
// <int64,int>.
func New(level Level, bitsPerSample int) *Channel {
	elementBits := 16
	if bitsPerSample >= 32 {
		elementBits = 32
	}

	specs := filterSpecsFor(level)
	filters := make([]*NeuralFilter, len(specs))
	for i, s := range specs {
		filters[i] = NewNeuralFilter(s.order, s.shift, elementBits)
	}

	return &Channel{
		elementBits: elementBits,
		long:        newLongTerm(longTermLagFor(level), 10),
		filters:     filters,
	}
}

// CompressValue runs one sample through long-term, short-term, and neural
// filter stages in series and returns the final residual. context carries
// a correlated channel's sample into the long-term layer (the stereo
// X-channel predictor is fed the same block's Y value this way, and the
// Y-channel predictor the previous block's X value); hasContext
// must be false when no such correlation exists, since a correlated
// sample can legitimately be zero.
func (c *Channel) CompressValue(sample int64, context int64, hasContext bool) int64 {
	longPred := c.long.predict(context, hasContext)
	afterLong := sample - longPred

	shortPred := c.short.predict()
	afterShort := afterLong - shortPred

	residual := afterShort
	for _, f := range c.filters {
		residual = f.Compress(residual)
	}

	c.long.update(sample, afterLong)
	c.short.update(afterLong, afterShort)

	return residual
}

// Flush clears all cascade state, run at the start of every frame.
func (c *Channel) Flush() {
	c.long.flush()
	c.short.flush()
	for _, f := range c.filters {
		f.Flush()
	}
}
