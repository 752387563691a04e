// Package pcmsource reads PCM audio out of the container formats Monkey's
// Audio can wrap: WAV (including RF64/BW64 and WAVEFORMATEXTENSIBLE), AIFF
// and AIFC, Sony Wave64, Sun/NeXT AU, and Core Audio Format. Every reader
// delivers samples in little-endian byte order (integer PCM or IEEE float),
// with AIFF's signed 8-bit samples biased into WAV's unsigned 8-bit
// convention, before handing them to the encoder, and reports the verbatim
// header and terminator bytes needed to reconstruct the original container
// on decode.
package pcmsource

import (
	"bytes"
	"errors"
	"io"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
)

var (
	ErrUnrecognizedFormat      = errors.New("pcmsource: unrecognized container format")
	ErrUnsupportedChannelCount = errors.New("pcmsource: unsupported channel count")
	ErrUnsupportedBitDepth     = errors.New("pcmsource: unsupported bit depth")
	ErrInvalidInputFile        = errors.New("pcmsource: invalid input file")
)

// Source is what every concrete container reader satisfies.
type Source interface {
	Format() audioformat.SampleFormat
	TotalBlocks() int64
	HeaderBlob() []byte
	TerminatorBlob() []byte
	Flags() audioformat.Flags
	Read(p []byte) (int, error)
}

const sniffLen = 64

// Open sniffs r's leading bytes against every known container magic and
// dispatches to the matching reader. If r is not already an io.ReadSeeker
// it is fully buffered into memory first, since every concrete reader needs
// random access to compute an exact terminator-blob length up front.
func Open(r io.Reader) (Source, error) {
	rs, err := ensureSeeker(r)
	if err != nil {
		return nil, err
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(rs, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	header = header[:n]
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch {
	case isWAVHeader(header):
		return openWAV(rs)
	case isAIFFHeader(header):
		return openAIFF(rs)
	case isW64Header(header):
		return openW64(rs)
	case isAUHeader(header):
		return openAU(rs)
	case isCAFHeader(header):
		return openCAF(rs)
	default:
		return nil, ErrUnrecognizedFormat
	}
}

func ensureSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func matches4(h []byte, off int, s string) bool {
	return len(h) >= off+4 && string(h[off:off+4]) == s
}

func isWAVHeader(h []byte) bool {
	return matches4(h, 0, "RIFF") || matches4(h, 0, "RF64") || matches4(h, 0, "BW64")
}

func isAIFFHeader(h []byte) bool {
	if !matches4(h, 0, "FORM") {
		return false
	}
	return matches4(h, 8, "AIFF") || matches4(h, 8, "AIFC")
}

func isAUHeader(h []byte) bool {
	return matches4(h, 0, ".snd") || matches4(h, 0, "dns.")
}

func isCAFHeader(h []byte) bool {
	return matches4(h, 0, "caff")
}

func isW64Header(h []byte) bool {
	if len(h) < 40 {
		return false
	}
	return bytes.Equal(h[0:16], w64GUIDRIFF[:]) && bytes.Equal(h[24:40], w64GUIDWAVE[:])
}
