package draw

import "math"

func sincos(rad float64) (float64, float64) {
	return math.Sincos(rad)
}
