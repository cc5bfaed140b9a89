package indicators

import "math"

// ComputeVolatility returns the population standard deviation of simple
// returns across the whole price series. At least two prices are required.
func ComputeVolatility(prices []float64) (float64, bool) {
	if len(prices) < 2 {
		return 0, false
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(returns))), true
}
