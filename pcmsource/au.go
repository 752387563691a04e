package pcmsource

import (
	"encoding/binary"
	"io"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

func openAU(rs io.ReadSeeker) (Source, error) {
	fileSize, err := seekSize(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(rs, magic); err != nil {
		return nil, err
	}
	bigEndian := string(magic) == ".snd"

	var bo binary.ByteOrder = binary.BigEndian
	if !bigEndian {
		bo = binary.LittleEndian
	}

	fields := make([]byte, 20)
	if _, err := io.ReadFull(rs, fields); err != nil {
		return nil, err
	}
	dataOffset := int64(bo.Uint32(fields[0:4]))
	dataSizeField := bo.Uint32(fields[4:8])
	encoding := bo.Uint32(fields[8:12])
	sampleRate := bo.Uint32(fields[12:16])
	channels := bo.Uint32(fields[16:20])

	bitsPerSample, isFloat, err := auEncodingToFormat(encoding)
	if err != nil {
		return nil, err
	}

	headerBlob := make([]byte, dataOffset)
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rs, headerBlob); err != nil {
		return nil, err
	}

	var dataSize int64
	if dataSizeField == 0xFFFFFFFF {
		dataSize = fileSize - dataOffset
	} else {
		dataSize = int64(dataSizeField)
	}

	terminator, err := readTerminator(rs, dataOffset, dataSize, fileSize)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(dataOffset, io.SeekStart); err != nil {
		return nil, err
	}

	format := audioformat.SampleFormat{
		SampleRate:    int(sampleRate),
		Channels:      int(channels),
		BitsPerSample: bitsPerSample,
		Float:         isFloat,
	}

	var r io.Reader = io.LimitReader(rs, dataSize)
	flags := audioformat.FlagSND
	if bigEndian {
		if bitsPerSample > 8 {
			r = &sampleTransformReader{r: r, bytesPerSample: bitsPerSample / 8, bigEndian: true}
			flags |= audioformat.FlagBigEndian
		}
	}
	if isFloat {
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

// auEncodingToFormat covers the linear-PCM and float encodings; mu-law/
// A-law and other companded encodings are out of scope (spec.md covers
// PCM and IEEE float input only).
func auEncodingToFormat(encoding uint32) (bitsPerSample int, isFloat bool, err error) {
	switch encoding {
	case 2:
		return 8, false, nil
	case 3:
		return 16, false, nil
	case 4:
		return 24, false, nil
	case 5:
		return 32, false, nil
	case 6:
		return 32, true, nil
	default:
		return 0, false, ErrUnsupportedBitDepth
	}
}
