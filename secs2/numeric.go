package secs2

// signedIntKind is the set of signed integer kinds accepted when building
// IntItem/UintItem values from caller-supplied arguments.
type signedIntKind interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// unsignedIntKind is the set of unsigned integer kinds accepted likewise.
type unsignedIntKind interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// clampSigned narrows v to the [minVal, maxVal] range an IntItem's byteSize allows.
func clampSigned[T signedIntKind](v T, minVal, maxVal int64) int64 {
	return clampInt64(int64(v), minVal, maxVal)
}

// appendClampedSigned clamps and appends every element of src to dst.
func appendClampedSigned[T signedIntKind](dst []int64, src []T, minVal, maxVal int64) []int64 {
	for _, v := range src {
		dst = append(dst, clampSigned(v, minVal, maxVal))
	}
	return dst
}

// clampUnsignedToInt64 narrows v to maxVal, the largest value an IntItem's
// byteSize can hold. An unsigned value is never below zero, so there is no
// lower bound to apply.
func clampUnsignedToInt64[T unsignedIntKind](v T, maxVal int64) int64 {
	//nolint:gosec // maxVal is always non-negative
	if uint64(v) > uint64(maxVal) {
		return maxVal
	}

	return int64(v) //nolint:gosec // checked above
}

// appendClampedUnsigned clamps and appends every element of src to dst.
func appendClampedUnsigned[T unsignedIntKind](dst []int64, src []T, maxVal int64) []int64 {
	for _, v := range src {
		dst = append(dst, clampUnsignedToInt64(v, maxVal))
	}
	return dst
}

// rejectNegative converts v to a uint64 for a UintItem, failing if v is
// negative since UintItem has no representation for it.
func rejectNegative[T signedIntKind](v T) (uint64, error) {
	if v < 0 {
		return 0, NewCodecError(KindInvalidFormat, "negative value not allowed for UintItem")
	}

	return uint64(v), nil
}

// appendNonNegative converts and appends every element of src to dst,
// rejecting the whole batch on the first negative value.
func appendNonNegative[T signedIntKind](dst []uint64, src []T) ([]uint64, error) {
	for _, v := range src {
		u, err := rejectNegative(v)
		if err != nil {
			return nil, err
		}

		dst = append(dst, u)
	}

	return dst, nil
}

// float64FromUnsigned converts v to a float64 for a FloatItem, failing if v
// exceeds 2^53 where float64 can no longer represent every integer exactly.
func float64FromUnsigned[T unsignedIntKind](v T) (float64, error) {
	if uint64(v) > 1<<53 {
		return 0, NewCodecError(KindInvalidFormat, "value overflow")
	}

	return float64(v), nil
}
