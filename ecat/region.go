package ecat

import "fmt"

// Region is a bounds-checked view of a byte range inside the process image.
//
// All access to a slave's input or output bytes goes through a Region; the
// underlying image is never handed out as an unchecked pointer. A Region is
// valid for the lifetime of the image it was created from, which the owning
// session never resizes after mapping.
type Region struct {
	buf []byte
}

// NewRegion creates a Region covering image[off : off+length].
// It returns ErrRegionBounds if the range does not fit inside the image.
func NewRegion(image []byte, off, length int) (Region, error) {
	if off < 0 || length < 0 || off+length > len(image) {
		return Region{}, fmt.Errorf("%w: off=%d len=%d image=%d", ErrRegionBounds, off, length, len(image))
	}

	return Region{buf: image[off : off+length : off+length]}, nil
}

// Len returns the region length in bytes.
func (r Region) Len() int { return len(r.buf) }

// IsZero reports whether the region is the zero value (no backing image).
func (r Region) IsZero() bool { return r.buf == nil }

// Bytes returns the live byte view of the region. Writes through the
// returned slice land in the process image.
func (r Region) Bytes() []byte { return r.buf }

// Zero clears every byte of the region.
func (r Region) Zero() {
	clear(r.buf)
}

// CopyFrom copies src into the region, truncated to the region length,
// and returns the number of bytes copied.
func (r Region) CopyFrom(src []byte) int {
	return copy(r.buf, src)
}

// CopyTo copies the region into dst, truncated to len(dst), and returns the
// number of bytes copied.
func (r Region) CopyTo(dst []byte) int {
	return copy(dst, r.buf)
}
