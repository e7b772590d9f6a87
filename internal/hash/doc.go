// Package hash provides the CRC32-Castagnoli checksum used to detect
// corrupted values read back from a backing store.
//
//	sum := hash.CRC32C(data)
package hash
