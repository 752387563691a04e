package pcmsource

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE
)

// KSDATAFORMAT_SUBTYPE_PCM / _IEEE_FLOAT, as laid out by WAVEFORMATEXTENSIBLE.
var (
	ksDataFormatPCM   = [16]byte{1, 0, 0, 0, 0, 0, 16, 0, 128, 0, 0, 170, 0, 56, 155, 113}
	ksDataFormatFloat = [16]byte{3, 0, 0, 0, 0, 0, 16, 0, 128, 0, 0, 170, 0, 56, 155, 113}
)

func openWAV(rs io.ReadSeeker) (Source, error) {
	fileSize, err := seekSize(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	tee := io.TeeReader(rs, &raw)

	riff, err := readChunkHeader(tee)
	if err != nil {
		return nil, err
	}
	isRF64 := string(riff.id[:]) == "RF64" || string(riff.id[:]) == "BW64"

	var waveID [4]byte
	if _, err := io.ReadFull(tee, waveID[:]); err != nil {
		return nil, err
	}
	if string(waveID[:]) != "WAVE" {
		return nil, ErrInvalidInputFile
	}

	var format audioformat.SampleFormat
	formatSeen := false
	var ds64DataSize uint64
	var dataSize int64

	for {
		ch, err := readChunkHeader(tee)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		switch string(ch.id[:]) {
		case "ds64":
			body := make([]byte, ch.size)
			if _, err := io.ReadFull(tee, body); err != nil {
				return nil, err
			}
			if len(body) >= 16 {
				ds64DataSize = binary.LittleEndian.Uint64(body[8:16])
			}
		case "fmt ":
			body := make([]byte, ch.size)
			if _, err := io.ReadFull(tee, body); err != nil {
				return nil, err
			}
			f, err := parseWAVFormat(body)
			if err != nil {
				return nil, err
			}
			format = f
			formatSeen = true
			skipRIFFPad(tee, ch.size)
		case "data":
			if !formatSeen {
				return nil, ErrInvalidInputFile
			}
			size := int64(ch.size)
			if isRF64 && ch.size == 0xFFFFFFFF {
				size = int64(ds64DataSize)
			}
			dataSize = size
			goto foundData
		default:
			if _, err := io.CopyN(io.Discard, tee, int64(ch.size)); err != nil {
				return nil, err
			}
			skipRIFFPad(tee, ch.size)
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
	var flags audioformat.Flags
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

func parseWAVFormat(body []byte) (audioformat.SampleFormat, error) {
	if len(body) < 16 {
		return audioformat.SampleFormat{}, ErrInvalidInputFile
	}
	formatTag := binary.LittleEndian.Uint16(body[0:2])
	channels := binary.LittleEndian.Uint16(body[2:4])
	sampleRate := binary.LittleEndian.Uint32(body[4:8])
	bitsPerSample := binary.LittleEndian.Uint16(body[14:16])

	isFloat := formatTag == wavFormatIEEEFloat

	switch formatTag {
	case wavFormatPCM, wavFormatIEEEFloat:
	case wavFormatExtensible:
		if len(body) >= 40 {
			var guid [16]byte
			copy(guid[:], body[24:40])
			if guid == ksDataFormatFloat {
				isFloat = true
			}
		}
	default:
		return audioformat.SampleFormat{}, ErrUnsupportedBitDepth
	}

	return audioformat.SampleFormat{
		SampleRate:    int(sampleRate),
		Channels:      int(channels),
		BitsPerSample: int(bitsPerSample),
		Float:         isFloat,
	}, nil
}

func skipRIFFPad(r io.Reader, size uint32) {
	if size%2 == 1 {
		io.CopyN(io.Discard, r, 1)
	}
}
