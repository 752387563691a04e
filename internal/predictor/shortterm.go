package predictor

// shortTerm mixes the two most recent residuals against the two most
// recent inputs using a pair of running integer coefficients, the
// second-order analogue of the long-term layer's single tap.
type shortTerm struct {
	coeff      [2]int64
	prevInput  [2]int64
	prevResidual [2]int64
}

func (st *shortTerm) predict() int64 {
	return (st.coeff[0]*st.prevInput[0] + st.coeff[1]*st.prevInput[1]) >> 9
}

func (st *shortTerm) update(x, residual int64) {
	switch {
	case residual > 0:
		st.coeff[0] += sign64(st.prevInput[0])
		st.coeff[1] += sign64(st.prevInput[1])
	case residual < 0:
		st.coeff[0] -= sign64(st.prevInput[0])
		st.coeff[1] -= sign64(st.prevInput[1])
	}
	st.prevInput[1] = st.prevInput[0]
	st.prevInput[0] = x
	st.prevResidual[1] = st.prevResidual[0]
	st.prevResidual[0] = residual
}

func (st *shortTerm) flush() {
	*st = shortTerm{}
}

func sign64(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
