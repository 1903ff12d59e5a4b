package util

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// TruncString truncates s to at most maxLen bytes, dropping any trailing
// NUL padding first. Device name fields arrive as fixed-width NUL padded
// byte regions.
func TruncString(s string, maxLen int) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			s = s[:i]
			break
		}
	}
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
