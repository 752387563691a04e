package predictor

import "github.com/sbooth/monkeysaudio/internal/cpufeature"

// dotProductFunc computes Σ a[i]*b[i] over equal-length slices.
type dotProductFunc func(a, b []int64) int64

// adaptFunc nudges coeff by ± delta[i] elementwise, the sign chosen by
// direction (positive output grows the coefficient, negative shrinks it).
type adaptFunc func(coeff, delta []int64, direction int64)

func dotProductScalar(a, b []int64) int64 {
	var sum int64
	for i, av := range a {
		sum += av * b[i]
	}
	return sum
}

// dotProductUnrolled is functionally identical to the scalar variant; it
// exists as the AVX2-path stand-in referenced by spec's function-pointer
// table note (§9) — the wire format does not depend on which one runs, only
// on the fact that exactly one is chosen once at startup.
func dotProductUnrolled(a, b []int64) int64 {
	var sum int64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		sum += a[i]*b[i] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
	}
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func adaptScalar(coeff, delta []int64, direction int64) {
	switch {
	case direction > 0:
		for i := range coeff {
			coeff[i] += delta[i]
		}
	case direction < 0:
		for i := range coeff {
			coeff[i] -= delta[i]
		}
	}
}

func adaptUnrolled(coeff, delta []int64, direction int64) {
	sign := int64(0)
	switch {
	case direction > 0:
		sign = 1
	case direction < 0:
		sign = -1
	}
	if sign == 0 {
		return
	}
	n := len(coeff)
	i := 0
	for ; i+4 <= n; i += 4 {
		coeff[i] += sign * delta[i]
		coeff[i+1] += sign * delta[i+1]
		coeff[i+2] += sign * delta[i+2]
		coeff[i+3] += sign * delta[i+3]
	}
	for ; i < n; i++ {
		coeff[i] += sign * delta[i]
	}
}

// variant bundles the dot-product/adapt pair a filter uses. selectVariant
// probes the host once (via cpufeature) and is otherwise called only at
// filter construction time, never per sample.
type variant struct {
	dot   dotProductFunc
	adapt adaptFunc
}

func selectVariant() variant {
	f := cpufeature.Detect()
	if f.HasAVX2 || f.HasAVX {
		return variant{dot: dotProductUnrolled, adapt: adaptUnrolled}
	}
	return variant{dot: dotProductScalar, adapt: adaptScalar}
}
