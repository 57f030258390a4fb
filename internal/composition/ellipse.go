package composition

import "math"

// EllipsePerimeter approximates the perimeter of an ellipse with semi-axes
// a and b (Ramanujan): π·[3(a+b) − √((3a+b)(a+3b))].
func EllipsePerimeter(a, b float64) float64 {
	return math.Pi * (3*(a+b) - math.Sqrt((3*a+b)*(a+3*b)))
}

// circumferenceFromWidth treats a frontal width as the major axis of an
// elliptical cross section whose depth is width*depthRatio.
func circumferenceFromWidth(widthCm float64, kind Kind) float64 {
	a := widthCm / 2
	b := widthCm * depthRatios[kind] / 2
	return EllipsePerimeter(a, b)
}
