package pcmsource

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

// openCAF reads Core Audio Format files carrying a linear-PCM 'desc'
// chunk. CAF has no direct counterpart in the retrieved reference source
// (only named alongside the other containers); this reader is modeled
// structurally on its WAV/AIFF/W64 siblings: big-endian chunk headers with
// a signed 64-bit size, a 'desc' chunk describing the format, and a 'data'
// chunk (prefixed by a 4-byte edit count) holding the PCM payload.
func openCAF(rs io.ReadSeeker) (Source, error) {
	fileSize, err := seekSize(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	tee := io.TeeReader(rs, &raw)

	fileHeader := make([]byte, 8)
	if _, err := io.ReadFull(tee, fileHeader); err != nil {
		return nil, err
	}
	if string(fileHeader[0:4]) != "caff" {
		return nil, ErrInvalidInputFile
	}

	var format audioformat.SampleFormat
	formatSeen := false
	bigEndianSamples := false
	var dataSize int64

	for {
		typeBuf := make([]byte, 4)
		n, err := io.ReadFull(tee, typeBuf)
		if n == 0 {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		var sizeBuf [8]byte
		if _, err := io.ReadFull(tee, sizeBuf[:]); err != nil {
			return nil, err
		}
		chunkSize := int64(binary.BigEndian.Uint64(sizeBuf[:]))

		switch string(typeBuf) {
		case "desc":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(tee, body); err != nil {
				return nil, err
			}
			if len(body) < 32 {
				return nil, ErrInvalidInputFile
			}
			sampleRate := math.Float64frombits(binary.BigEndian.Uint64(body[0:8]))
			formatID := string(body[8:12])
			if formatID != "lpcm" {
				return nil, ErrUnsupportedBitDepth
			}
			formatFlags := binary.BigEndian.Uint32(body[12:16])
			channelsPerFrame := binary.BigEndian.Uint32(body[24:28])
			bitsPerChannel := binary.BigEndian.Uint32(body[28:32])

			isFloat := formatFlags&0x1 != 0
			bigEndianSamples = formatFlags&0x2 == 0

			format = audioformat.SampleFormat{
				SampleRate:    int(sampleRate),
				Channels:      int(channelsPerFrame),
				BitsPerSample: int(bitsPerChannel),
				Float:         isFloat,
			}
			formatSeen = true
		case "data":
			if !formatSeen {
				return nil, ErrInvalidInputFile
			}
			var editCount [4]byte
			if _, err := io.ReadFull(tee, editCount[:]); err != nil {
				return nil, err
			}
			dataSize = chunkSize - 4
			goto foundData
		default:
			if _, err := io.CopyN(io.Discard, tee, chunkSize); err != nil {
				return nil, err
			}
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

	var r io.Reader = io.LimitReader(rs, dataSize)
	flags := audioformat.FlagCAF
	if bigEndianSamples && format.BitsPerSample > 8 {
		r = &sampleTransformReader{r: r, bytesPerSample: format.BitsPerSample / 8, bigEndian: true}
		flags |= audioformat.FlagBigEndian
	}
	if format.Float {
		flags |= audioformat.FlagFloatingPoint
	}

	totalBlocks := dataSize / int64(format.BlockAlign())

	return &boundedSource{
		r:           r,
		format:      format,
		totalBlocks: totalBlocks,
		header:      headerBlob,
		terminator:  terminator,
		flags:       flags,
	}, nil
}
