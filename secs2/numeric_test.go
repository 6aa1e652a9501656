package secs2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampSigned(t *testing.T) {
	require := require.New(t)

	require.Equal(int64(100), clampSigned(int32(100), -128, 127))
	require.Equal(int64(127), clampSigned(int32(1000), -128, 127))
	require.Equal(int64(-128), clampSigned(int32(-1000), -128, 127))
	require.Equal(int64(-5), clampSigned(int8(-5), -128, 127))
}

func TestAppendClampedSigned(t *testing.T) {
	require := require.New(t)

	dst := appendClampedSigned[int32](nil, []int32{-1000, 0, 1000}, -128, 127)
	require.Equal([]int64{-128, 0, 127}, dst)

	dst = appendClampedSigned(dst, []int16{10}, -128, 127)
	require.Equal([]int64{-128, 0, 127, 10}, dst)
}

func TestClampUnsignedToInt64(t *testing.T) {
	require := require.New(t)

	require.Equal(int64(200), clampUnsignedToInt64(uint32(200), 255))
	require.Equal(int64(255), clampUnsignedToInt64(uint32(1000), 255))
	require.Equal(int64(0), clampUnsignedToInt64(uint8(0), 255))
}

func TestAppendClampedUnsigned(t *testing.T) {
	require := require.New(t)

	dst := appendClampedUnsigned[uint32](nil, []uint32{10, 1000}, 255)
	require.Equal([]int64{10, 255}, dst)
}

func TestRejectNegative(t *testing.T) {
	require := require.New(t)

	v, err := rejectNegative(int32(42))
	require.NoError(err)
	require.Equal(uint64(42), v)

	_, err = rejectNegative(int32(-1))
	require.Error(err)
	require.Equal(KindInvalidFormat, CodecKind(err))
}

func TestAppendNonNegative(t *testing.T) {
	require := require.New(t)

	dst, err := appendNonNegative[int64](nil, []int64{1, 2, 3})
	require.NoError(err)
	require.Equal([]uint64{1, 2, 3}, dst)

	// The whole batch is rejected on the first negative value, matching
	// combineUintValues's all-or-nothing construction semantics.
	dst, err = appendNonNegative[int64](nil, []int64{1, -2, 3})
	require.Error(err)
	require.Nil(dst)
	require.Equal(KindInvalidFormat, CodecKind(err))
}

func TestFloat64FromUnsigned(t *testing.T) {
	require := require.New(t)

	v, err := float64FromUnsigned(uint64(1 << 52))
	require.NoError(err)
	require.Equal(float64(1<<52), v)

	_, err = float64FromUnsigned(uint64(1<<53 + 1))
	require.Error(err)
	require.Equal(KindInvalidFormat, CodecKind(err))
}
