package types

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the normalized area of the box
func (b Box) Area() float64 {
	return b.W * b.H
}

// Detection is one object proposed by a vision model
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// DetectionResult contains the complete response of a vision model
type DetectionResult struct {
	Objects     []Detection `json:"objects"`
	Description string      `json:"description"`
}

// ModelImageConfig controls how an image is encoded before it is sent to a model
type ModelImageConfig struct {
	Format  string
	MaxDim  int
	Quality int
}
