package vision

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// analysisSize is the longest side the saliency map is computed on.
const analysisSize = 256

// SubjectDetector proposes salient regions of an image. It needs no model and is
// used as the offline pre-labeling backend.
type SubjectDetector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for subject detection
type DetectionConfig struct {
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinSubjectRatio float64
	// MaxOverlap is the IoU above which a weaker region is suppressed.
	MaxOverlap float64
	MaxRegions int
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() DetectionConfig {
	return DetectionConfig{
		EdgeThreshold:   0.01,
		ContrastWeight:  0.3,
		ColorWeight:     0.2,
		MinSubjectRatio: 0.02,
		MaxOverlap:      0.3,
		MaxRegions:      5,
	}
}

// New creates a new SubjectDetector with default configuration
func New() *SubjectDetector {
	return &SubjectDetector{config: DefaultConfig()}
}

// NewWithConfig creates a new SubjectDetector with custom configuration
func NewWithConfig(config DetectionConfig) *SubjectDetector {
	return &SubjectDetector{config: config}
}

// Region is a rectangular region of interest in pixels of the source image.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	Score  float64
}

// Center returns the center point of the region
func (r Region) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the area of the region
func (r Region) Area() int {
	return r.Width * r.Height
}

// IoU returns the intersection over union of two regions.
func (r Region) IoU(o Region) float64 {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.Width, o.X+o.Width), min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	inter := (x1 - x0) * (y1 - y0)
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// DetectSubjects returns up to MaxRegions non-overlapping salient regions, best first.
func (d *SubjectDetector) DetectSubjects(img image.Image) ([]Region, error) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, nil
	}

	small := imaging.Fit(img, analysisSize, analysisSize, imaging.Box)
	w, h := small.Bounds().Dx(), small.Bounds().Dy()

	saliency := d.saliencyMap(small)
	candidates := d.slidingWindows(saliency, w, h)
	regions := d.suppress(candidates, w*h)

	sx, sy := float64(srcW)/float64(w), float64(srcH)/float64(h)
	for i := range regions {
		regions[i].X = int(math.Round(float64(regions[i].X) * sx))
		regions[i].Y = int(math.Round(float64(regions[i].Y) * sy))
		regions[i].Width = int(math.Round(float64(regions[i].Width) * sx))
		regions[i].Height = int(math.Round(float64(regions[i].Height) * sy))
	}
	return regions, nil
}

// saliencyMap combines local edge strength with brightness for every interior pixel.
func (d *SubjectDetector) saliencyMap(img *image.NRGBA) [][]float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([][]float64, h)
	for i := range out {
		out[i] = make([]float64, w)
	}

	px := func(x, y int) (float64, float64, float64) {
		i := y*img.Stride + x*4
		return float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			r1, g1, b1 := px(x, y)
			var edge float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					r2, g2, b2 := px(x+dx, y+dy)
					edge += math.Sqrt((r1-r2)*(r1-r2) + (g1-g2)*(g1-g2) + (b1-b2)*(b1-b2))
				}
			}
			edge /= 8 * 255
			brightness := (r1 + g1 + b1) / (3 * 255)
			out[y][x] = d.config.ContrastWeight*edge + d.config.ColorWeight*brightness
		}
	}
	return out
}

func (d *SubjectDetector) slidingWindows(saliency [][]float64, w, h int) []Region {
	var regions []Region
	minArea := float64(w*h) * d.config.MinSubjectRatio

	for _, div := range []int{12, 8, 6, 4, 3} {
		size := min(w, h) * 2 / div
		if size < 8 || float64(size*size) < minArea {
			continue
		}
		step := max(size/4, 1)
		for y := 0; y+size <= h; y += step {
			for x := 0; x+size <= w; x += step {
				score := meanOver(saliency, x, y, size, size)
				if score > d.config.EdgeThreshold {
					regions = append(regions, Region{X: x, Y: y, Width: size, Height: size, Score: score})
				}
			}
		}
	}
	return regions
}

func meanOver(m [][]float64, x, y, w, h int) float64 {
	var sum float64
	for ry := y; ry < y+h; ry++ {
		for rx := x; rx < x+w; rx++ {
			sum += m[ry][rx]
		}
	}
	return sum / float64(w*h)
}

// suppress keeps the best scoring regions and drops any that overlap a kept one.
func (d *SubjectDetector) suppress(regions []Region, imageArea int) []Region {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Score > regions[j].Score
	})

	var kept []Region
	for _, r := range regions {
		if float64(r.Area()) < float64(imageArea)*d.config.MinSubjectRatio {
			continue
		}
		overlaps := false
		for _, k := range kept {
			if r.IoU(k) > d.config.MaxOverlap {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		kept = append(kept, r)
		if d.config.MaxRegions > 0 && len(kept) == d.config.MaxRegions {
			break
		}
	}
	return kept
}
