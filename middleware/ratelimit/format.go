package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }

// sem notação científica para valores comuns
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
