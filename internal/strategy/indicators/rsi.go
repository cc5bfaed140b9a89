package indicators

// ComputeRSI computes an RSI-style oscillator over an arbitrary series using
// simple averages of the last window gains and losses. The engine feeds it
// the volatility series, which turns it into a volatility regime gauge.
//
// Returns exactly 100 when the average loss is zero.
func ComputeRSI(series []float64, window int) (float64, bool) {
	if window <= 0 || len(series) < window+1 {
		return 0, false
	}

	deltas := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		deltas = append(deltas, series[i]-series[i-1])
	}

	var avgGain, avgLoss float64
	for _, d := range deltas[len(deltas)-window:] {
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)

	if avgLoss == 0 {
		return 100.0, true
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}
