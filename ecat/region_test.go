package ecat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegionBounds(t *testing.T) {
	require := require.New(t)

	image := make([]byte, 16)

	r, err := NewRegion(image, 4, 8)
	require.NoError(err)
	require.Equal(8, r.Len())

	_, err = NewRegion(image, 12, 8)
	require.ErrorIs(err, ErrRegionBounds)

	_, err = NewRegion(image, -1, 4)
	require.ErrorIs(err, ErrRegionBounds)

	_, err = NewRegion(image, 0, -1)
	require.ErrorIs(err, ErrRegionBounds)

	// zero-length region at the end is fine
	r, err = NewRegion(image, 16, 0)
	require.NoError(err)
	require.Equal(0, r.Len())
}

func TestRegionView(t *testing.T) {
	require := require.New(t)

	image := make([]byte, 8)
	r, err := NewRegion(image, 2, 4)
	require.NoError(err)

	n := r.CopyFrom([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE})
	require.Equal(4, n)
	require.Equal([]byte{0, 0, 0xAA, 0xBB, 0xCC, 0xDD, 0, 0}, image)

	dst := make([]byte, 2)
	require.Equal(2, r.CopyTo(dst))
	require.Equal([]byte{0xAA, 0xBB}, dst)

	r.Zero()
	require.Equal(make([]byte, 8), image)

	// writes through Bytes land in the image
	r.Bytes()[0] = 0x7F
	require.Equal(byte(0x7F), image[2])

	require.True(Region{}.IsZero())
	require.False(r.IsZero())
}
