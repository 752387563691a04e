package ape

import (
	"errors"
	"io"

	"github.com/sbooth/monkeysaudio/container"
	"github.com/sbooth/monkeysaudio/internal/frame"
	"github.com/sbooth/monkeysaudio/internal/workerpool"
)

// defaultWorkers is used when Config.Workers is left at zero.
const defaultWorkers = 4

// Config describes the audio being compressed and how to compress it.
// TotalBlocks must be the exact number of PCM blocks that will be submitted
// across all calls to EncodeFrame — the container's seek table is sized
// from it, and a frame submitted past that bound makes a later EncodeFrame
// or Finish fail with ErrTooMuchData once its worker's output is written.
type Config struct {
	Format      SampleFormat
	Level       CompressionLevel
	TotalBlocks int64
	Workers     int
	FormatFlags Flags

	// WAVHeader and WAVTerminator are the verbatim source-container blobs
	// to embed, letting a decoder reconstruct the original file exactly.
	// Leave both nil and set FlagCreateWAVHeader to have a decoder
	// synthesize a minimal WAV header instead.
	WAVHeader     []byte
	WAVTerminator []byte
}

// Encoder drives one compressed file end to end: EncodeFrame submits PCM a
// frame at a time to a pool of worker goroutines, and Finish drains the
// pool and back-patches the container's header and seek table. An Encoder
// is not safe for concurrent use — EncodeFrame and Finish must be called
// from a single goroutine, matching the producer/worker split described in
// DESIGN.md's worker-pool section.
type Encoder struct {
	format          SampleFormat
	blocksPerFrame  int
	lastFrameBlocks int

	pool     *workerpool.Pool
	writer   *container.Writer
	finished bool
}

// New validates cfg, lays out the container's fixed-size region, and starts
// cfg.Workers (or defaultWorkers) frame-encoding goroutines.
func New(w io.WriteSeeker, cfg Config) (*Encoder, error) {
	if cfg.Format.Channels <= 0 {
		return nil, ErrUnsupportedChannelCount
	}
	switch cfg.Format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}
	if cfg.TotalBlocks <= 0 {
		return nil, ErrBadParameter
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	blocksPerFrame := cfg.Level.BlocksPerFrame()
	totalFrames, finalFrameBlocks := frameCounts(cfg.TotalBlocks, blocksPerFrame)

	cw, err := container.New(w, container.Config{
		FloatCompressed:  cfg.Format.Float,
		CompressionLevel: cfg.Level,
		FormatFlags:      cfg.FormatFlags,
		BlocksPerFrame:   uint32(blocksPerFrame),
		FinalFrameBlocks: finalFrameBlocks,
		TotalFrames:      totalFrames,
		BitsPerSample:    uint16(cfg.Format.BitsPerSample),
		Channels:         uint16(cfg.Format.Channels),
		SampleRate:       uint32(cfg.Format.SampleRate),
		WAVHeader:        cfg.WAVHeader,
		WAVTerminator:    cfg.WAVTerminator,
	})
	if err != nil {
		return nil, &Error{Code: CodeIOWrite, Err: err}
	}

	pool, err := workerpool.New(workers, func() workerpool.FrameEncoder {
		return frame.New(cfg.Format, cfg.Level, blocksPerFrame)
	}, cw)
	if err != nil {
		return nil, &Error{Code: CodeBadParameter, Err: err}
	}

	return &Encoder{
		format:          cfg.Format,
		blocksPerFrame:  blocksPerFrame,
		lastFrameBlocks: blocksPerFrame,
		pool:            pool,
		writer:          cw,
	}, nil
}

// frameCounts computes the header's total_frames and final_frame_blocks
// fields from a known total block count, so they can be written once and
// never revised even though the bytes themselves are back-patched at
// Finish.
func frameCounts(totalBlocks int64, blocksPerFrame int) (totalFrames, finalFrameBlocks uint32) {
	n := (totalBlocks + int64(blocksPerFrame) - 1) / int64(blocksPerFrame)
	remainder := totalBlocks - (n-1)*int64(blocksPerFrame)
	return uint32(n), uint32(remainder)
}

// EncodeFrame submits one frame's worth of PCM bytes to the next worker in
// round-robin order. pcm's length must be an exact multiple of the sample
// format's block alignment, and frame boundaries are the caller's
// responsibility: every frame but the last must carry exactly
// Config.Level.BlocksPerFrame() blocks. A short frame may only be followed
// by Finish — submitting any further non-empty frame after one returns
// ErrUndefined.
func (e *Encoder) EncodeFrame(pcm []byte) error {
	if e.finished {
		return ErrBadParameter
	}

	nBlocks := len(pcm) / e.format.BlockAlign()
	if nBlocks > 0 && e.lastFrameBlocks < e.blocksPerFrame {
		return ErrUndefined
	}

	if err := e.pool.Submit(pcm); err != nil {
		return wrapPoolError(err)
	}
	e.lastFrameBlocks = nBlocks
	return nil
}

// Finish drains every worker in submission order and back-patches the
// container's descriptor, header, and seek table now that the file MD5 and
// every frame offset are known. Finish is idempotent.
func (e *Encoder) Finish() error {
	if e.finished {
		return nil
	}
	e.finished = true

	if err := e.pool.Finish(); err != nil {
		return wrapPoolError(err)
	}
	return nil
}

func wrapPoolError(err error) error {
	if errors.Is(err, container.ErrTooMuchData) {
		return ErrTooMuchData
	}
	return &Error{Code: CodeIOWrite, Err: err}
}
