package diff

import (
	"fmt"
	"image"
	"os"

	// Register the common decoders for pixel comparison.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageStats summarizes a pixel-level comparison of two images. The
// comparison runs over the overlapping region when dimensions differ.
type ImageStats struct {
	LeftPath    string `json:"left_path"`
	RightPath   string `json:"right_path"`
	LeftWidth   int    `json:"left_width"`
	LeftHeight  int    `json:"left_height"`
	RightWidth  int    `json:"right_width"`
	RightHeight int    `json:"right_height"`

	TotalPixels     int64   `json:"total_pixels"`
	DifferentPixels int64   `json:"different_pixels"`
	DifferencePct   float64 `json:"difference_pct"`
	MeanDiff        float64 `json:"mean_diff"`
	SimilarityPct   float64 `json:"similarity_pct"`
}

// CompareImages decodes two image files and computes pixel statistics.
// Tolerance is the per-channel delta (0-255) below which a pixel still
// counts as equal.
func CompareImages(leftPath, rightPath string, tolerance int) (*ImageStats, error) {
	left, err := decodeImage(leftPath)
	if err != nil {
		return nil, fmt.Errorf("read left image: %w", err)
	}
	right, err := decodeImage(rightPath)
	if err != nil {
		return nil, fmt.Errorf("read right image: %w", err)
	}

	stats := &ImageStats{
		LeftPath:    leftPath,
		RightPath:   rightPath,
		LeftWidth:   left.Bounds().Dx(),
		LeftHeight:  left.Bounds().Dy(),
		RightWidth:  right.Bounds().Dx(),
		RightHeight: right.Bounds().Dy(),
	}

	width := stats.LeftWidth
	if stats.RightWidth < width {
		width = stats.RightWidth
	}
	height := stats.LeftHeight
	if stats.RightHeight < height {
		height = stats.RightHeight
	}

	var diffSum float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lr, lg, lb, la := rgba8(left, left.Bounds().Min.X+x, left.Bounds().Min.Y+y)
			rr, rg, rb, ra := rgba8(right, right.Bounds().Min.X+x, right.Bounds().Min.Y+y)

			delta := maxDelta(lr, rr, lg, rg, lb, rb, la, ra)
			stats.TotalPixels++
			if delta > tolerance {
				stats.DifferentPixels++
			}
			diffSum += float64(delta)
		}
	}

	// Pixels outside the overlap always count as different.
	leftTotal := int64(stats.LeftWidth) * int64(stats.LeftHeight)
	rightTotal := int64(stats.RightWidth) * int64(stats.RightHeight)
	overlap := stats.TotalPixels
	extra := (leftTotal - overlap) + (rightTotal - overlap)
	stats.TotalPixels += extra
	stats.DifferentPixels += extra

	if stats.TotalPixels > 0 {
		stats.DifferencePct = 100 * float64(stats.DifferentPixels) / float64(stats.TotalPixels)
		stats.SimilarityPct = 100 - stats.DifferencePct
	}
	if overlap > 0 {
		stats.MeanDiff = diffSum / float64(overlap)
	}

	return stats, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func rgba8(img image.Image, x, y int) (r, g, b, a int) {
	r16, g16, b16, a16 := img.At(x, y).RGBA()
	return int(r16 >> 8), int(g16 >> 8), int(b16 >> 8), int(a16 >> 8)
}

func maxDelta(pairs ...int) int {
	max := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		d := pairs[i] - pairs[i+1]
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
