package indicators

// ComputeEMA returns the exponential moving average of prices.
// The average is seeded with the first retained price, so the seed moves
// forward as the price window evicts old data.
func ComputeEMA(prices []float64, window int) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}

	alpha := 2.0 / float64(window+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = alpha*p + (1-alpha)*ema
	}
	return ema, true
}
