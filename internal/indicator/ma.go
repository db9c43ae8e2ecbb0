package indicator

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// EMA calculates Exponential Moving Average seeded with the first price.
// Returns one value per input price.
func EMA(prices []float64, span int) []float64 {
	if span <= 0 || len(prices) == 0 {
		return []float64{}
	}

	result := make([]float64, len(prices))
	k := Alpha(span)

	result[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		result[i] = prices[i]*k + result[i-1]*(1-k)
	}

	return result
}

// Alpha returns the EMA smoothing factor 2/(span+1).
func Alpha(span int) float64 {
	return 2.0 / float64(span+1)
}
