package pcmsource

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

// Sony Wave64 chunk GUIDs: a riff/wave/fmt /data ASCII tag followed by a
// fixed suffix; the wave, fmt and data GUIDs share one suffix and the riff
// GUID has its own.
var (
	w64GUIDRIFF = [16]byte{0x72, 0x69, 0x66, 0x66, 0x2E, 0x91, 0xCF, 0x11, 0xA5, 0xD6, 0x28, 0xDB, 0x04, 0xC1, 0x00, 0x00}
	w64GUIDWAVE = [16]byte{0x77, 0x61, 0x76, 0x65, 0xF3, 0xAC, 0xD3, 0x11, 0x8C, 0xD1, 0x00, 0xC0, 0x4F, 0x8E, 0xDB, 0x8A}
	w64GUIDFMT  = [16]byte{0x66, 0x6D, 0x74, 0x20, 0xF3, 0xAC, 0xD3, 0x11, 0x8C, 0xD1, 0x00, 0xC0, 0x4F, 0x8E, 0xDB, 0x8A}
	w64GUIDDATA = [16]byte{0x64, 0x61, 0x74, 0x61, 0xF3, 0xAC, 0xD3, 0x11, 0x8C, 0xD1, 0x00, 0xC0, 0x4F, 0x8E, 0xDB, 0x8A}
)

func openW64(rs io.ReadSeeker) (Source, error) {
	fileSize, err := seekSize(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	tee := io.TeeReader(rs, &raw)

	var riffGUID [16]byte
	if _, err := io.ReadFull(tee, riffGUID[:]); err != nil {
		return nil, err
	}
	if riffGUID != w64GUIDRIFF {
		return nil, ErrInvalidInputFile
	}
	var riffSizeBuf [8]byte
	if _, err := io.ReadFull(tee, riffSizeBuf[:]); err != nil {
		return nil, err
	}
	var waveGUID [16]byte
	if _, err := io.ReadFull(tee, waveGUID[:]); err != nil {
		return nil, err
	}
	if waveGUID != w64GUIDWAVE {
		return nil, ErrInvalidInputFile
	}

	var format audioformat.SampleFormat
	formatSeen := false
	var dataSize int64

	for {
		var guid [16]byte
		n, err := io.ReadFull(tee, guid[:])
		if n == 0 {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		var chunkSizeBuf [8]byte
		if _, err := io.ReadFull(tee, chunkSizeBuf[:]); err != nil {
			return nil, err
		}
		chunkSize := int64(binary.LittleEndian.Uint64(chunkSizeBuf[:]))
		bodySize := chunkSize - 24

		switch guid {
		case w64GUIDFMT:
			body := make([]byte, bodySize)
			if _, err := io.ReadFull(tee, body); err != nil {
				return nil, err
			}
			f, err := parseWAVFormat(body)
			if err != nil {
				return nil, err
			}
			format = f
			formatSeen = true
			skipW64Pad(tee, chunkSize)
		case w64GUIDDATA:
			if !formatSeen {
				return nil, ErrInvalidInputFile
			}
			dataSize = bodySize
			goto foundData
		default:
			if _, err := io.CopyN(io.Discard, tee, bodySize); err != nil {
				return nil, err
			}
			skipW64Pad(tee, chunkSize)
		}
	}
	return nil, ErrInvalidInputFile

foundData:
	headerBlob := append([]byte(nil), raw.Bytes()...)
	dataStart := int64(len(headerBlob))

	terminator, err := readTerminator(rs, dataStart, dataSize, fileSize)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(dataStart, io.SeekStart); err != nil {
		return nil, err
	}

	totalBlocks := dataSize / int64(format.BlockAlign())
	flags := audioformat.FlagW64
	if format.Float {
		flags |= audioformat.FlagFloatingPoint
	}

	return &boundedSource{
		r:           io.LimitReader(rs, dataSize),
		format:      format,
		totalBlocks: totalBlocks,
		header:      headerBlob,
		terminator:  terminator,
		flags:       flags,
	}, nil
}

// Wave64 chunks are padded to an 8-byte boundary; the chunk size field
// includes the 24-byte guid+size header itself, unlike plain RIFF.
func skipW64Pad(r io.Reader, chunkSize int64) {
	if pad := chunkSize % 8; pad != 0 {
		io.CopyN(io.Discard, r, 8-pad)
	}
}
