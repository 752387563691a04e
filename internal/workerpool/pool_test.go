package workerpool

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

type fakeEncoder struct {
	label byte
}

func (f *fakeEncoder) EncodeFrame(pcm []byte) ([]byte, error) {
	out := make([]byte, len(pcm)+1)
	copy(out, pcm)
	out[len(pcm)] = f.label
	return out, nil
}

type recordingWriter struct {
	mu       sync.Mutex
	segments [][]byte
	indices  []int
	tail     []byte
	finished bool
}

func (w *recordingWriter) WriteSegment(frameIndex int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indices = append(w.indices, frameIndex)
	w.segments = append(w.segments, append([]byte(nil), data...))
	return nil
}

func (w *recordingWriter) Finish(finalTail []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finished = true
	w.tail = append([]byte(nil), finalTail...)
	return nil
}

func TestPoolRetiresInSubmissionOrder(t *testing.T) {
	writer := &recordingWriter{}
	i := 0
	pool, err := New(3, func() FrameEncoder {
		i++
		return &fakeEncoder{label: byte(i)}
	}, writer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for n := 0; n < 7; n++ {
		pcm := []byte{byte(n), byte(n), byte(n), byte(n)}
		if err := pool.Submit(pcm); err != nil {
			t.Fatalf("Submit %d: %v", n, err)
		}
	}
	if err := pool.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if !reflect.DeepEqual(writer.indices, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("indices = %v, want sequential 0..6", writer.indices)
	}
	if !writer.finished {
		t.Error("writer.Finish was not called")
	}
}

func TestFixupFrameCarriesPartialWordAcrossFrames(t *testing.T) {
	seg1, carry1 := fixupFrame([]byte{1, 2, 3, 4, 5}, nil)
	if !reflect.DeepEqual(seg1, []byte{1, 2, 3, 4}) {
		t.Errorf("seg1 = %v", seg1)
	}
	if !reflect.DeepEqual(carry1, []byte{5}) {
		t.Errorf("carry1 = %v", carry1)
	}

	seg2, carry2 := fixupFrame([]byte{6, 7, 8}, carry1)
	if !reflect.DeepEqual(seg2, []byte{5, 6, 7, 8}) {
		t.Errorf("seg2 = %v", seg2)
	}
	if len(carry2) != 0 {
		t.Errorf("carry2 = %v, want empty", carry2)
	}
}

func TestNewRejectsOutOfRangeWorkerCounts(t *testing.T) {
	writer := &recordingWriter{}
	if _, err := New(0, func() FrameEncoder { return &fakeEncoder{} }, writer); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("New(0) error = %v, want ErrNoWorkers", err)
	}
	if _, err := New(33, func() FrameEncoder { return &fakeEncoder{} }, writer); !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("New(33) error = %v, want ErrTooManyWorkers", err)
	}
}

func TestPoolPropagatesWorkerError(t *testing.T) {
	writer := &recordingWriter{}
	boom := errors.New("boom")
	pool, err := New(1, func() FrameEncoder { return erroringEncoder{err: boom} }, writer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := pool.Submit([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := pool.Submit([]byte{5, 6, 7, 8}); !errors.Is(err, boom) {
		t.Errorf("second Submit error = %v, want boom", err)
	}
}

type erroringEncoder struct{ err error }

func (e erroringEncoder) EncodeFrame(pcm []byte) ([]byte, error) { return nil, e.err }
