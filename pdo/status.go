package pdo

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Record sizes in bytes. Callers should validate a slave's mapped region
// sizes against these constants before relying on record packing.
const (
	// StatusSize is the wire size of the status record in a slave's
	// input region.
	StatusSize = 8

	// CommandSize is the declared wire size of the command record in a
	// slave's output region. Output regions may be mapped larger; bytes
	// beyond the record are never touched by Pack.
	CommandSize = 20
)

// ErrShortBuffer indicates that a byte region is smaller than the record
// it should carry. Nothing is read or written past the region in that case.
var ErrShortBuffer = errors.New("byte region shorter than record size")

// Status is the structured view of one slave's input region: the drive's
// actual position, 22 status flag bits and the slot identifier.
//
// Wire layout (little-endian):
//
//	offset 0: ActualPosition (int32)
//	offset 4: Flags (3 bytes, see Flag)
//	offset 7: Slot
type Status struct {
	ActualPosition int32
	Flags          Flags
	Slot           uint8
}

// Has returns whether the status flag bit is set.
func (s Status) Has(flag Flag) bool { return s.Flags.Has(flag) }

// UnpackStatus decodes a status record from the first StatusSize bytes of b.
// It returns ErrShortBuffer if b is shorter than the record and never reads
// past the record boundary even when b is larger.
func UnpackStatus(b []byte) (Status, error) {
	if len(b) < StatusSize {
		return Status{}, fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(b), StatusSize)
	}
	b = b[:StatusSize]

	var st Status
	st.ActualPosition = int32(binary.LittleEndian.Uint32(b[0:4]))
	copy(st.Flags[:], b[4:7])
	st.Slot = b[7]

	return st, nil
}

// Pack encodes the status record into the first StatusSize bytes of dst.
// It is the inverse of UnpackStatus and exists for simulated buses and
// tests; a real slave produces this record on its own.
func (s Status) Pack(dst []byte) error {
	if len(dst) < StatusSize {
		return fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(dst), StatusSize)
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(s.ActualPosition))
	copy(dst[4:7], s.Flags[:])
	dst[7] = s.Slot

	return nil
}
