// Package crc provides byte-order conversion helpers and the running CRC-32
// accumulator used to fingerprint decoded PCM blocks.
package crc

import "hash/crc32"

// Table is the IEEE polynomial table shared by every CRC accumulator in the
// package; computing it once at init keeps Update allocation-free.
var Table = crc32.MakeTable(crc32.IEEE)

// Update folds all of buf into the running CRC value.
func Update(crc uint32, buf []byte) uint32 {
	return crc32.Update(crc, Table, buf)
}

// SwitchBufferBytes reverses the byte order of every nBytesPerBlock-sized
// block in buf, in place. pcmsource uses it to turn big-endian source
// samples into little-endian ones.
func SwitchBufferBytes(buf []byte, nBytesPerBlock int) {
	for off := 0; off+nBytesPerBlock <= len(buf); off += nBytesPerBlock {
		block := buf[off : off+nBytesPerBlock]
		for i, j := 0, len(block)-1; i < j; i, j = i+1, j-1 {
			block[i], block[j] = block[j], block[i]
		}
	}
}
