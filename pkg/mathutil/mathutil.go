// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mathutil

import "cmp"

// Clamp limits v to the inclusive range [lo, hi].
func Clamp[T cmp.Ordered](v T, lo T, hi T) T {
	return min(max(v, lo), hi)
}

// AbsDiff returns |x - y| without overflow concerns for floats.
func AbsDiff(x, y float64) float64 {
	if x > y {
		return x - y
	}

	return y - x
}
