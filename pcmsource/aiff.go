package pcmsource

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

func openAIFF(rs io.ReadSeeker) (Source, error) {
	fileSize, err := seekSize(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	tee := io.TeeReader(rs, &raw)

	formHeader := make([]byte, 12)
	if _, err := io.ReadFull(tee, formHeader); err != nil {
		return nil, err
	}
	if string(formHeader[0:4]) != "FORM" {
		return nil, ErrInvalidInputFile
	}
	isAIFC := string(formHeader[8:12]) == "AIFC"
	if !isAIFC && string(formHeader[8:12]) != "AIFF" {
		return nil, ErrInvalidInputFile
	}

	var format audioformat.SampleFormat
	formatSeen := false
	littleEndian := false
	var dataSize int64

	for {
		idBuf := make([]byte, 4)
		n, err := io.ReadFull(tee, idBuf)
		if n == 0 {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		var sizeBuf [4]byte
		if _, err := io.ReadFull(tee, sizeBuf[:]); err != nil {
			return nil, err
		}
		chunkSize := int64(binary.BigEndian.Uint32(sizeBuf[:]))

		switch string(idBuf) {
		case "COMM":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(tee, body); err != nil {
				return nil, err
			}
			padIfOdd(tee, chunkSize)
			if len(body) < 18 {
				return nil, ErrInvalidInputFile
			}
			channels := binary.BigEndian.Uint16(body[0:2])
			sampleSize := binary.BigEndian.Uint16(body[6:8])
			sampleRate := decodeExtended80(body[8:18])

			isFloat := false
			if isAIFC && len(body) >= 22 {
				switch string(body[18:22]) {
				case "sowt":
					littleEndian = true
				case "fl32", "FL32":
					isFloat = true
				}
			}

			format = audioformat.SampleFormat{
				SampleRate:    int(sampleRate),
				Channels:      int(channels),
				BitsPerSample: int(sampleSize),
				Float:         isFloat,
			}
			formatSeen = true
		case "SSND":
			if !formatSeen {
				return nil, ErrInvalidInputFile
			}
			var prefix [8]byte
			if _, err := io.ReadFull(tee, prefix[:]); err != nil {
				return nil, err
			}
			offset := int64(binary.BigEndian.Uint32(prefix[0:4]))
			if offset > 0 {
				if _, err := io.CopyN(io.Discard, tee, offset); err != nil {
					return nil, err
				}
			}
			dataSize = chunkSize - 8 - offset
			goto foundData
		default:
			if _, err := io.CopyN(io.Discard, tee, chunkSize); err != nil {
				return nil, err
			}
			padIfOdd(tee, chunkSize)
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
	bytesPerSample := format.BitsPerSample / 8

	var flags audioformat.Flags
	flags |= audioformat.FlagAIFF
	switch {
	case format.BitsPerSample == 8:
		r = &sampleTransformReader{r: r, bytesPerSample: 1, biasAIFF8: true}
		flags |= audioformat.FlagSigned8Bit
	case !littleEndian:
		r = &sampleTransformReader{r: r, bytesPerSample: bytesPerSample, bigEndian: true}
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

func padIfOdd(r io.Reader, size int64) {
	if size%2 == 1 {
		io.CopyN(io.Discard, r, 1)
	}
}

// decodeExtended80 parses an 80-bit x87 extended-precision float, the
// encoding AIFF's COMM chunk uses for its sample rate.
func decodeExtended80(b []byte) float64 {
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1.0
	}
	exponent := int(b[0]&0x7f)<<8 | int(b[1])
	mantissa := binary.BigEndian.Uint64(b[2:10])
	if exponent == 0 && mantissa == 0 {
		return 0
	}
	return sign * float64(mantissa) * math.Pow(2, float64(exponent-16383-63))
}
