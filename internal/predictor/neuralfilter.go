package predictor

// NeuralFilter is one adaptive filter layer in the predictor cascade: a
// coefficient vector dotted against recent input history, rounded and
// shifted into a prediction, with the coefficients nudged by the sign of
// the resulting residual. elementBits controls the saturating clamp
// applied to values pushed into history (16 for ≤24-bit audio, 32 for
// 32-bit audio) — the two instantiations the reference implementation
// templates over (CNNFilter<int,short> vs CNNFilter<int64,int>).
type NeuralFilter struct {
	order       int
	shift       uint
	elementBits int

	coeff   []int64
	history *ring
	delta   *ring

	v variant
}

// NewNeuralFilter builds a filter of the given order and rounding shift.
// elementBits must be 16 or 32.
func NewNeuralFilter(order int, shift uint, elementBits int) *NeuralFilter {
	return &NeuralFilter{
		order:       order,
		shift:       shift,
		elementBits: elementBits,
		coeff:       make([]int64, order),
		history:     newRing(order),
		delta:       newRing(order),
		v:           selectVariant(),
	}
}

// Compress runs one sample through the filter, returning the residual and
// updating the coefficient vector and history/delta rings in place.
func (f *NeuralFilter) Compress(x int64) int64 {
	dot := f.v.dot(f.history.history(), f.coeff)
	rounding := int64(1) << (f.shift - 1)
	y := x - ((dot + rounding) >> f.shift)

	f.v.adapt(f.coeff, f.delta.history(), y)

	f.delta.push(deltaStep(x))
	f.history.push(saturate(x, f.elementBits))

	return y
}

// Flush clears coefficients and history/delta rings, matching the
// per-frame predictor flush the frame encoder performs before each frame.
func (f *NeuralFilter) Flush() {
	for i := range f.coeff {
		f.coeff[i] = 0
	}
	f.history.reset()
	f.delta.reset()
}

// deltaStep derives the adaptation step stored at the front of the delta
// ring for the next round. The reference source gates this on an encoder
// version ("UPDATE_DELTA_NEW" vs "_OLD") that was not present in the
// retrieved sources; this module always uses the sign-scaled rule spec.md
// §4.E describes, which is the newer of the two and the one current
// encoders emit.
func deltaStep(x int64) int64 {
	switch {
	case x > 0:
		return 2
	case x < 0:
		return -2
	default:
		return 0
	}
}

// saturate clamps v into the signed range of elementBits (16 or 32),
// matching GetSaturatedShortFromInt's saturating narrowing conversion.
func saturate(v int64, elementBits int) int64 {
	var max, min int64
	if elementBits <= 16 {
		max, min = 32767, -32768
	} else {
		max, min = 2147483647, -2147483648
	}
	switch {
	case v > max:
		return max
	case v < min:
		return min
	default:
		return v
	}
}
