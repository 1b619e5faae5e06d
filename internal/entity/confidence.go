// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"strconv"
	"strings"
)

// ParseConfidence reads a confidence score given either as a number or as a
// string such as "0.87" or "87%". Values above 1 are treated as percentages.
// The result is clamped to [0, 1]; ok is false when v carries no score.
func ParseConfidence(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		percent := strings.HasSuffix(s, "%")
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
		if percent {
			f /= 100
		}
	default:
		return 0, false
	}
	if f > 1 {
		f /= 100
	}
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	return f, true
}
