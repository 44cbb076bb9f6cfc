package mapping

var scale_thresholds = []float64{
	1000,
	2000,
	4000,
	8000,
	15000,
	35000,
	70000,
	150000,
	250000,
	500000,
	1000000,
	2000000,
	4000000,
	10000000,
	15000000,
	35000000,
	70000000,
	150000000,
	250000000,
}

// ScaleToZoom returns the web map zoom level (0-19) closest to a map scale denominator.
func ScaleToZoom(scale float64) int {

	for i, threshold := range scale_thresholds {
		if scale < threshold {
			return 19 - i
		}
	}

	return 0
}
