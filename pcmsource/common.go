package pcmsource

import (
	"encoding/binary"
	"io"

	"github.com/sbooth/monkeysaudio/internal/audioformat"
	"github.com/sbooth/monkeysaudio/internal/crc"
)

type chunkHeader struct {
	id   [4]byte
	size uint32
}

func readChunkHeader(r io.Reader) (chunkHeader, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return chunkHeader{}, err
	}
	var ch chunkHeader
	copy(ch.id[:], buf[0:4])
	ch.size = binary.LittleEndian.Uint32(buf[4:8])
	return ch, nil
}

// boundedSource is the Source implementation shared by every concrete
// reader: the parse step only needs to produce a ready-to-stream PCM
// reader and the metadata below.
type boundedSource struct {
	r           io.Reader
	format      audioformat.SampleFormat
	totalBlocks int64
	header      []byte
	terminator  []byte
	flags       audioformat.Flags
}

func (s *boundedSource) Format() audioformat.SampleFormat { return s.format }
func (s *boundedSource) TotalBlocks() int64                { return s.totalBlocks }
func (s *boundedSource) HeaderBlob() []byte                 { return s.header }
func (s *boundedSource) TerminatorBlob() []byte             { return s.terminator }
func (s *boundedSource) Flags() audioformat.Flags           { return s.flags }
func (s *boundedSource) Read(p []byte) (int, error)         { return s.r.Read(p) }

func seekSize(rs io.ReadSeeker) (int64, error) {
	return rs.Seek(0, io.SeekEnd)
}

// readTerminator captures the verbatim bytes following the PCM payload
// (trailing chunks, padding, anything the source container appended) so
// the file can be reconstructed byte-exact on decode.
func readTerminator(rs io.ReadSeeker, dataStart, dataSize, fileSize int64) ([]byte, error) {
	termLen := fileSize - (dataStart + dataSize)
	if termLen <= 0 {
		return nil, nil
	}
	if _, err := rs.Seek(dataStart+dataSize, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, termLen)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// sampleTransformReader normalizes a big-endian or AIFF-signed-8-bit PCM
// stream into the little-endian / WAV-unsigned-8-bit convention the rest of
// the pipeline expects, one whole sample group at a time. Callers are
// expected to pass buffers sized in whole sample groups, which every block
// of PCM the frame encoder requests always is.
type sampleTransformReader struct {
	r              io.Reader
	bytesPerSample int
	bigEndian      bool
	biasAIFF8      bool
}

func (t *sampleTransformReader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(t.r, p)
	if n == 0 {
		return 0, err
	}

	usable := n - n%t.bytesPerSample
	switch {
	case t.biasAIFF8:
		for off := 0; off < usable; off += t.bytesPerSample {
			p[off] += 128
		}
	case t.bigEndian:
		crc.SwitchBufferBytes(p[:usable], t.bytesPerSample)
	}

	if err == io.EOF {
		return n, nil
	}
	return n, err
}
