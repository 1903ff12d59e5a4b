package pdo

import (
	"encoding/binary"
	"fmt"
)

// CodeLen is the width of the ASCII command code field.
const CodeLen = 4

// Command is the structured view written into one slave's output region.
//
// Wire layout (little-endian):
//
//	offset  0: Code (4 ASCII bytes, left-justified)
//	offset  4: Parameter (int32)
//	offset  8: Velocity (uint32)
//	offset 12: Acceleration (uint16)
//	offset 14: Deceleration (uint16)
//	offset 16: Execute
//	offset 17-19: reserved, never written
//
// Pack writes only the bytes the record defines: code bytes beyond
// len(Code) and the reserved tail keep whatever the region already holds.
// Callers that need a deterministic region must zero it first.
type Command struct {
	Code         string
	Parameter    int32
	Velocity     uint32
	Acceleration uint16
	Deceleration uint16
	Execute      uint8
}

// Nop returns the benign no-operation command with the execute flag clear.
// It is staged into every output region before the first bus cycle so the
// transition to operational does not command motion.
func Nop() Command {
	return Command{Code: "NOP"}
}

// Pack encodes the command record into the first CommandSize bytes of dst.
// It returns ErrShortBuffer if dst is shorter than the record, or an error
// if the command code exceeds CodeLen bytes. Nothing is written on failure.
func (c Command) Pack(dst []byte) error {
	if len(c.Code) > CodeLen {
		return fmt.Errorf("command code %q longer than %d bytes", c.Code, CodeLen)
	}
	if len(dst) < CommandSize {
		return fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(dst), CommandSize)
	}

	copy(dst[0:CodeLen], c.Code)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(c.Parameter))
	binary.LittleEndian.PutUint32(dst[8:12], c.Velocity)
	binary.LittleEndian.PutUint16(dst[12:14], c.Acceleration)
	binary.LittleEndian.PutUint16(dst[14:16], c.Deceleration)
	dst[16] = c.Execute

	return nil
}

// UnpackCommand decodes a command record from the first CommandSize bytes
// of b. It exists for simulated buses and tests; a real master only packs.
// Trailing NUL padding is stripped from the code field.
func UnpackCommand(b []byte) (Command, error) {
	if len(b) < CommandSize {
		return Command{}, fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(b), CommandSize)
	}
	b = b[:CommandSize]

	var c Command
	code := b[0:CodeLen]
	n := CodeLen
	for n > 0 && code[n-1] == 0 {
		n--
	}
	c.Code = string(code[:n])
	c.Parameter = int32(binary.LittleEndian.Uint32(b[4:8]))
	c.Velocity = binary.LittleEndian.Uint32(b[8:12])
	c.Acceleration = binary.LittleEndian.Uint16(b[12:14])
	c.Deceleration = binary.LittleEndian.Uint16(b[14:16])
	c.Execute = b[16]

	return c, nil
}
