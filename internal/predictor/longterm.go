package predictor

// longTerm is the one-tap delay-line predictor: it predicts the current
// sample from a single historical sample "lag" positions back, scaled by a
// learned integer gain, and nudges that gain toward the residual's sign.
// A lag of zero disables the layer entirely (the FAST compression level).
type longTerm struct {
	lag    int
	shift  uint
	gain   int64
	buf    []int64
	pos    int
}

func newLongTerm(lag int, shift uint) *longTerm {
	lt := &longTerm{lag: lag, shift: shift}
	if lag > 0 {
		lt.buf = make([]int64, lag)
	}
	return lt
}

func (lt *longTerm) enabled() bool {
	return lt.lag > 0
}

// predict returns the current tap's contribution; when hasContext is set,
// context overrides the tap with a value supplied by a correlated channel
// (the stereo X-channel predictor is fed the same block's Y value this
// way, and the Y-channel predictor the previous block's X value) rather
// than the delay line's own history.
func (lt *longTerm) predict(context int64, hasContext bool) int64 {
	if !lt.enabled() {
		return 0
	}
	tap := lt.buf[lt.pos]
	if hasContext {
		tap = context
	}
	return (tap * lt.gain) >> lt.shift
}

// update adapts the gain by the sign of the residual and pushes x into the
// delay line.
func (lt *longTerm) update(x, residual int64) {
	if !lt.enabled() {
		return
	}
	switch {
	case residual > 0:
		lt.gain++
	case residual < 0:
		lt.gain--
	}
	lt.buf[lt.pos] = x
	lt.pos++
	if lt.pos == len(lt.buf) {
		lt.pos = 0
	}
}

func (lt *longTerm) flush() {
	for i := range lt.buf {
		lt.buf[i] = 0
	}
	lt.pos = 0
	lt.gain = 0
}
