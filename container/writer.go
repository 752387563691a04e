package container

import (
	"crypto/md5"
	"errors"
	"hash"
	"io"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

// ErrTooMuchData is returned by WriteSegment once the caller has produced
// more frames than the Config declared. The writer marks itself unusable
// from this point on — Finish still drains and returns the file in a
// truncated-but-consistent state.
var ErrTooMuchData = errors.New("container: more frames written than declared")

// ErrFinished is returned by WriteSegment or Finish if called again after
// Finish has already run.
var ErrFinished = errors.New("container: writer already finished")

// Config describes the audio parameters and container-format metadata
// needed to lay out the descriptor and header. TotalFrames must be an
// upper bound on the number of frames that will be written — the seek
// table is sized and zero-filled for exactly this many slots up front.
type Config struct {
	FloatCompressed  bool
	CompressionLevel audioformat.CompressionLevel
	FormatFlags      audioformat.Flags
	BlocksPerFrame   uint32
	FinalFrameBlocks uint32
	TotalFrames      uint32
	BitsPerSample    uint16
	Channels         uint16
	SampleRate       uint32

	// WAVHeader and WAVTerminator are verbatim blobs copied from the
	// source container. WAVHeader is stored only when FormatFlags does not
	// carry CreateWAVHeader; WAVTerminator is stored whenever non-empty.
	WAVHeader     []byte
	WAVTerminator []byte
}

// Writer implements workerpool.Writer: it accepts whole-word-aligned frame
// segments in strict order, and lays out the on-disk Monkey's Audio file
// format described above.
type Writer struct {
	w   io.WriteSeeker
	cfg Config

	seekTable      []uint32
	offset         uint32
	frameDataBytes uint64

	md5      hash.Hash
	finished bool
	tooMuch  bool
}

// New validates cfg, writes the zeroed descriptor/header/seek-table region
// plus any WAV header blob, and returns a Writer ready to accept frame
// segments via WriteSegment. w must support Seek, since Finish rewinds to
// offset 0 to back-patch the now-complete header region.
func New(w io.WriteSeeker, cfg Config) (*Writer, error) {
	if cfg.TotalFrames == 0 {
		return nil, errors.New("container: TotalFrames must be > 0")
	}
	if cfg.FormatFlags&audioformat.FlagCreateWAVHeader != 0 {
		cfg.WAVHeader = nil
	}

	cw := &Writer{
		w:         w,
		cfg:       cfg,
		seekTable: make([]uint32, cfg.TotalFrames),
		md5:       md5.New(),
	}

	seekTableBytes := 4 * int(cfg.TotalFrames)
	zeroed := make([]byte, descriptorBytes+headerBytes+seekTableBytes)
	if _, err := w.Write(zeroed); err != nil {
		return nil, err
	}

	if len(cfg.WAVHeader) > 0 {
		if _, err := w.Write(cfg.WAVHeader); err != nil {
			return nil, err
		}
		cw.md5.Write(cfg.WAVHeader)
	}

	cw.offset = uint32(len(zeroed) + len(cfg.WAVHeader))
	return cw, nil
}

// WriteSegment records frameIndex's starting offset in the seek table and
// appends data (a whole-word-aligned slice produced by the worker pool's
// frame fixup) to the file, folding it into the running MD5.
func (cw *Writer) WriteSegment(frameIndex int, data []byte) error {
	if cw.finished {
		return ErrFinished
	}
	if frameIndex < 0 || frameIndex >= len(cw.seekTable) {
		cw.tooMuch = true
		return ErrTooMuchData
	}

	cw.seekTable[frameIndex] = cw.offset
	if len(data) == 0 {
		return nil
	}
	if _, err := cw.w.Write(data); err != nil {
		return err
	}
	cw.md5.Write(data)
	cw.offset += uint32(len(data))
	cw.frameDataBytes += uint64(len(data))
	return nil
}

// Finish writes the stream's final leftover partial word (zero-padded to a
// whole word, per spec), then the WAV terminator blob, then rewinds to
// offset 0 and back-patches the descriptor, header, and seek table now that
// every size and the file MD5 are known.
func (cw *Writer) Finish(finalTail []byte) error {
	if cw.finished {
		return ErrFinished
	}
	cw.finished = true

	if len(finalTail) > 0 {
		padded := make([]byte, 4)
		copy(padded, finalTail)
		if _, err := cw.w.Write(padded); err != nil {
			return err
		}
		cw.md5.Write(padded)
		cw.offset += 4
		cw.frameDataBytes += 4
	}

	if len(cw.cfg.WAVTerminator) > 0 {
		if _, err := cw.w.Write(cw.cfg.WAVTerminator); err != nil {
			return err
		}
		cw.md5.Write(cw.cfg.WAVTerminator)
	}

	hdr := &header{
		compressionLevel: uint16(cw.cfg.CompressionLevel),
		formatFlags:      uint16(cw.cfg.FormatFlags),
		blocksPerFrame:   cw.cfg.BlocksPerFrame,
		finalFrameBlocks: cw.cfg.FinalFrameBlocks,
		totalFrames:      cw.cfg.TotalFrames,
		bitsPerSample:    cw.cfg.BitsPerSample,
		channels:         cw.cfg.Channels,
		sampleRate:       cw.cfg.SampleRate,
	}
	headerBuf := hdr.marshal()
	cw.md5.Write(headerBuf)

	seekBuf := marshalSeekTable(cw.seekTable)
	cw.md5.Write(seekBuf)

	desc := &descriptor{
		version:               interfaceVersion,
		descriptorBytes:       descriptorBytes,
		headerBytes:           headerBytes,
		seekTableBytes:        uint32(len(seekBuf)),
		wavHeaderBytes:        uint32(len(cw.cfg.WAVHeader)),
		apeFrameDataBytes:     uint32(cw.frameDataBytes),
		apeFrameDataBytesHigh: uint32(cw.frameDataBytes >> 32),
		wavTerminatingBytes:   uint32(len(cw.cfg.WAVTerminator)),
	}
	if cw.cfg.FloatCompressed {
		desc.magic = magicFloat
	} else {
		desc.magic = magicPCM
	}
	copy(desc.fileMD5[:], cw.md5.Sum(nil))

	if _, err := cw.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	out := make([]byte, 0, descriptorBytes+headerBytes+len(seekBuf))
	out = append(out, desc.marshal()...)
	out = append(out, headerBuf...)
	out = append(out, seekBuf...)
	if _, err := cw.w.Write(out); err != nil {
		return err
	}

	if cw.tooMuch {
		return ErrTooMuchData
	}
	return nil
}
