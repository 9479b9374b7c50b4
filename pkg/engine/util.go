package engine

import "golang.org/x/exp/constraints"

func maxOf[T constraints.Ordered](a T, b T) T {
	if a > b {
		return a
	}
	return b
}

func minOf[T constraints.Ordered](a T, b T) T {
	if a < b {
		return a
	}
	return b
}

func abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

func clamp[T constraints.Ordered](v T, lo T, hi T) T {
	return maxOf(lo, minOf(v, hi))
}
