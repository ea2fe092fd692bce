// Package technical builds the price series and indicator overlays drawn on
// stock charts.
package technical

// RollingMean is a trailing mean over window observations. Positions with
// fewer than window observations average what is available, so the result
// has a value at every index.
func RollingMean(data []float64, window int) []float64 {
	n := len(data)
	if n == 0 || window <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += data[i]
		if i >= window {
			sum -= data[i-window]
		}
		count := min(i+1, window)
		result[i] = sum / float64(count)
	}
	return result
}

// Closes extracts closing prices in bar order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
