// Package workerpool runs a fixed ring of frame encoders as goroutines,
// retires their output in strict submission order, and threads each
// frame's trailing partial word into the front of the next so that every
// on-disk segment except the very last is a whole number of 32-bit words.
package workerpool

import (
	"errors"
	"sync"
)

// ErrTooManyWorkers and ErrNoWorkers guard the pool's 1..32 worker range.
var (
	ErrTooManyWorkers = errors.New("workerpool: too many workers (max 32)")
	ErrNoWorkers      = errors.New("workerpool: need at least one worker")
)

// FrameEncoder is the per-worker task: it owns its own bit-sink and
// predictor state and returns a frame's fully coded, finalized bytes.
type FrameEncoder interface {
	EncodeFrame(pcm []byte) ([]byte, error)
}

// Writer receives finished, whole-word-aligned frame segments in strict
// order and is responsible for seek-table bookkeeping, MD5 accumulation,
// and the actual file write.
type Writer interface {
	WriteSegment(frameIndex int, data []byte) error
	Finish(finalTail []byte) error
}

type workerSlot struct {
	process   chan struct{}
	ready     chan struct{}
	enc       FrameEncoder
	in        []byte
	out       []byte
	err       error
	hasOutput bool
	exit      bool
}

func (w *workerSlot) run() {
	for {
		<-w.process
		if w.exit {
			return
		}
		w.out, w.err = w.enc.EncodeFrame(w.in)
		w.ready <- struct{}{}
	}
}

// Pool is the producer-side handle: Submit and Finish run on the single
// producer goroutine (the encoder), never concurrently with each other.
type Pool struct {
	workers []*workerSlot
	next    int
	writer  Writer

	mu         sync.Mutex
	carry      []byte
	frameIndex int
	firstErr   error
}

// New starts t worker goroutines, each running a FrameEncoder built by
// newEncoder. t must be between 1 and 32 inclusive.
func New(t int, newEncoder func() FrameEncoder, writer Writer) (*Pool, error) {
	if t < 1 {
		return nil, ErrNoWorkers
	}
	if t > 32 {
		return nil, ErrTooManyWorkers
	}

	p := &Pool{writer: writer, workers: make([]*workerSlot, t)}
	for i := range p.workers {
		w := &workerSlot{
			process: make(chan struct{}, 1),
			ready:   make(chan struct{}, 1),
			enc:     newEncoder(),
		}
		// ready starts signaled so the first Submit to this worker doesn't
		// block waiting on output that doesn't exist yet.
		w.ready <- struct{}{}
		p.workers[i] = w
		go w.run()
	}
	return p, nil
}

// Submit hands pcm to the next worker in round-robin order, first reaping
// and writing out that worker's previous output (if any). Submission order
// is what guarantees retirement order: the producer never posts work to a
// worker before it has consumed that worker's prior result.
func (p *Pool) Submit(pcm []byte) error {
	w := p.workers[p.next]

	<-w.ready
	if w.hasOutput {
		if err := p.retire(w); err != nil {
			p.recordErr(err)
		}
	}

	w.in = append(w.in[:0], pcm...)
	w.hasOutput = true
	w.process <- struct{}{}

	p.next = (p.next + 1) % len(p.workers)
	return p.firstErr
}

// Finish drains every worker in order, writes each one's final output, then
// signals exit to all workers. It always runs to completion — even a prior
// error only fails the call's return value, not the drain itself, matching
// spec.md §7's "finalize is a best-effort drain".
func (p *Pool) Finish() error {
	idx := p.next
	for i := 0; i < len(p.workers); i++ {
		w := p.workers[idx]
		<-w.ready
		if w.hasOutput {
			if err := p.retire(w); err != nil {
				p.recordErr(err)
			}
		}
		w.exit = true
		w.process <- struct{}{}
		idx = (idx + 1) % len(p.workers)
	}

	if err := p.writer.Finish(p.carry); err != nil {
		p.recordErr(err)
	}
	return p.firstErr
}

func (p *Pool) retire(w *workerSlot) error {
	w.hasOutput = false
	if w.err != nil {
		return w.err
	}
	if len(w.out) == 0 {
		return nil
	}

	segment, newCarry := fixupFrame(w.out, p.carry)
	p.carry = newCarry

	err := p.writer.WriteSegment(p.frameIndex, segment)
	p.frameIndex++
	return err
}

func (p *Pool) recordErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firstErr == nil {
		p.firstErr = err
	}
}

// fixupFrame prepends the previous frame's leftover 0-3 bytes to buf and
// splits the result into a whole-word-aligned prefix (ready to write) and a
// new leftover tail to carry into the next frame.
func fixupFrame(buf []byte, carry []byte) (segment []byte, newCarry []byte) {
	combined := make([]byte, 0, len(carry)+len(buf))
	combined = append(combined, carry...)
	combined = append(combined, buf...)

	wholeLen := len(combined) / 4 * 4
	segment = combined[:wholeLen]
	newCarry = append([]byte(nil), combined[wholeLen:]...)
	return segment, newCarry
}
