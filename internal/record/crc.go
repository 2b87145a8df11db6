package record

import "hash/crc32"

// CalculateCRC computes the CRC32 checksum of the given byte slices, in order,
// using the IEEE polynomial.
func CalculateCRC(parts ...[]byte) uint32 {
	var crc uint32
	for _, p := range parts {
		crc = crc32.Update(crc, crc32.IEEETable, p)
	}
	return crc
}

// ValidateCRC returns true if checksum matches the CRC32 of parts.
func ValidateCRC(checksum uint32, parts ...[]byte) bool {
	return CalculateCRC(parts...) == checksum
}
