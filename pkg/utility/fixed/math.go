package fixed

func Sum(points []Point) Point {
	sum := Zero
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum
}

func Mean(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}
	return Sum(points).DivInt(len(points))
}

func Min(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}

	minimum := points[0]
	for _, point := range points[1:] {
		if point.Lt(minimum) {
			minimum = point
		}
	}
	return minimum
}

func Max(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}

	maximum := points[0]
	for _, point := range points[1:] {
		if point.Gt(maximum) {
			maximum = point
		}
	}
	return maximum
}

func Variance(points []Point, mean Point) Point {
	if len(points) <= 1 {
		return Zero
	}

	sum := Zero
	for _, point := range points {
		diff := point.Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}

	return sum.DivInt(len(points))
}

func StdDev(points []Point, mean Point) Point {
	return Variance(points, mean).Sqrt()
}
