package hash

import (
	"encoding/binary"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// AppendCRC32C appends the little-endian checksum of data to dst.
func AppendCRC32C(dst, data []byte) []byte {
	return binary.LittleEndian.AppendUint32(dst, CRC32C(data))
}

// VerifyCRC32C reports whether sum, a little-endian checksum written by
// AppendCRC32C, matches data.
func VerifyCRC32C(data, sum []byte) bool {
	return len(sum) == 4 && binary.LittleEndian.Uint32(sum) == CRC32C(data)
}
