// Package pdo implements the fixed-layout process data records exchanged
// with each drive: the 8-byte status record read from a slave's input region
// and the 20-byte command record written to its output region.
//
// Pack and unpack are pure byte operations against caller-supplied regions.
// Numeric fields are little-endian. Neither direction ever touches bytes
// beyond the declared record size, and both fail cleanly on regions shorter
// than the record.
package pdo
