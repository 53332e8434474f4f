package domain

// BoundingBox is an axis-aligned box in frame pixel coordinates.
type BoundingBox struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Detection represents a single detected object in a frame.
type Detection struct {
	Label      string
	ClassID    int
	Confidence float64
	Box        BoundingBox
}
