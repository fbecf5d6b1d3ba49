package sim

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG masks
	_ "image/png"  // register PNG masks
	"os"

	_ "golang.org/x/image/bmp" // register BMP masks
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF masks
	_ "golang.org/x/image/webp" // register WebP masks
)

// ErrNoMask is returned when a grid is built without usable mask data.
var ErrNoMask = errors.New("mask image is missing or empty")

// MaskThresholds controls wall classification. Channel values are in [0,1].
// A sample is a wall when red is above RedMin and both green and blue are
// below their maxima (solid red marks windows and walls in the source art).
type MaskThresholds struct {
	RedMin   float64 `yaml:"red_min"`
	GreenMax float64 `yaml:"green_max"`
	BlueMax  float64 `yaml:"blue_max"`
}

// DefaultMaskThresholds returns the stock red-wall classification.
func DefaultMaskThresholds() MaskThresholds {
	return MaskThresholds{RedMin: 0.5, GreenMax: 0.4, BlueMax: 0.4}
}

// IsWall classifies a single colour.
func (mt MaskThresholds) IsWall(c color.Color) bool {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	r := float64(n.R) / 255
	g := float64(n.G) / 255
	b := float64(n.B) / 255
	return r > mt.RedMin && g < mt.GreenMax && b < mt.BlueMax
}

// LoadMask decodes a mask image from disk. PNG, JPEG, BMP, TIFF and WebP are
// accepted.
func LoadMask(path string) (image.Image, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied asset path
	if err != nil {
		return nil, fmt.Errorf("opening mask: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding mask %s: %w", path, err)
	}
	return img, nil
}

// BuildGridMap resamples mask to width x height and marks wall cells.
// Image row 0 is the top of the picture while grid row 0 is the bottom, so
// grid row y reads resampled row height-1-y.
func BuildGridMap(mask image.Image, width, height int, th MaskThresholds) (*GridMap, error) {
	if mask == nil || mask.Bounds().Empty() {
		return nil, fmt.Errorf("build grid: %w", ErrNoMask)
	}
	g, err := NewGridMap(width, height)
	if err != nil {
		return nil, err
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)

	for y := 0; y < height; y++ {
		row := height - 1 - y
		for x := 0; x < width; x++ {
			if th.IsWall(scaled.NRGBAAt(x, row)) {
				g.setWall(x, y)
			}
		}
	}
	return g, nil
}
