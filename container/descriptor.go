// Package container writes the Monkey's Audio file format: a fixed
// descriptor and header, a seek table of frame offsets, an optional
// verbatim WAV header blob, the stream of compressed frames, and an
// optional verbatim terminating blob, closing with an MD5 fingerprint
// back-patched into the descriptor at finalize.
package container

import "encoding/binary"

const (
	descriptorBytes = 52
	headerBytes     = 24
)

var magicPCM = [4]byte{'M', 'A', 'C', ' '}
var magicFloat = [4]byte{'M', 'A', 'C', 'F'}

// interfaceVersion is the descriptor version this writer advertises.
// Decoders reject files with a version higher than they understand.
const interfaceVersion = 13

type descriptor struct {
	magic                 [4]byte
	version               uint16
	padding               uint16
	descriptorBytes       uint32
	headerBytes           uint32
	seekTableBytes        uint32
	wavHeaderBytes        uint32
	apeFrameDataBytes     uint32
	apeFrameDataBytesHigh uint32
	wavTerminatingBytes   uint32
	fileMD5               [16]byte
}

func (d *descriptor) marshal() []byte {
	buf := make([]byte, descriptorBytes)
	copy(buf[0:4], d.magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], d.version)
	binary.LittleEndian.PutUint16(buf[6:8], d.padding)
	binary.LittleEndian.PutUint32(buf[8:12], d.descriptorBytes)
	binary.LittleEndian.PutUint32(buf[12:16], d.headerBytes)
	binary.LittleEndian.PutUint32(buf[16:20], d.seekTableBytes)
	binary.LittleEndian.PutUint32(buf[20:24], d.wavHeaderBytes)
	binary.LittleEndian.PutUint32(buf[24:28], d.apeFrameDataBytes)
	binary.LittleEndian.PutUint32(buf[28:32], d.apeFrameDataBytesHigh)
	binary.LittleEndian.PutUint32(buf[32:36], d.wavTerminatingBytes)
	copy(buf[36:52], d.fileMD5[:])
	return buf
}

type header struct {
	compressionLevel uint16
	formatFlags      uint16
	blocksPerFrame   uint32
	finalFrameBlocks uint32
	totalFrames      uint32
	bitsPerSample    uint16
	channels         uint16
	sampleRate       uint32
}

func (h *header) marshal() []byte {
	buf := make([]byte, headerBytes)
	binary.LittleEndian.PutUint16(buf[0:2], h.compressionLevel)
	binary.LittleEndian.PutUint16(buf[2:4], h.formatFlags)
	binary.LittleEndian.PutUint32(buf[4:8], h.blocksPerFrame)
	binary.LittleEndian.PutUint32(buf[8:12], h.finalFrameBlocks)
	binary.LittleEndian.PutUint32(buf[12:16], h.totalFrames)
	binary.LittleEndian.PutUint16(buf[16:18], h.bitsPerSample)
	binary.LittleEndian.PutUint16(buf[18:20], h.channels)
	binary.LittleEndian.PutUint32(buf[20:24], h.sampleRate)
	return buf
}

func marshalSeekTable(table []uint32) []byte {
	buf := make([]byte, 4*len(table))
	for i, v := range table {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
	}
	return buf
}
