package ocr

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/common"
)

// upscaleBelow is the longest side under which high_contrast renders are doubled.
const upscaleBelow = 2000

// RenderVariant prepares the engine input for one variant inside workDir and returns
// its path. The original variant, and any input that is not a decodable image
// (PDFs, unknown formats), pass through unchanged.
func RenderVariant(src, workDir string, variant constants.Variant) (string, error) {
	if variant == constants.VariantOriginal {
		return src, nil
	}

	img, err := decodeImage(src)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return src, nil
		}
		return "", fmt.Errorf("%w: decode %s: %w", common.ErrEngineInvocation, src, err)
	}

	var out image.Image
	switch variant {
	case constants.VariantHighContrast:
		out = highContrast(img)
	case constants.VariantRotated:
		out = rotate90(img)
	default:
		return "", fmt.Errorf("%w: unknown variant %q", common.ErrInvalidInput, variant)
	}

	dst := filepath.Join(workDir, "input_"+string(variant)+".png")
	if err := writePNG(dst, out); err != nil {
		return "", fmt.Errorf("%w: render %s: %w", common.ErrEngineInvocation, variant, err)
	}
	return dst, nil
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

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// highContrast converts to grayscale, stretches the luminance range to 0..255
// and doubles small images.
func highContrast(src image.Image) image.Image {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	lo, hi := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
			gray.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: v})
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi > lo {
		span := float64(hi - lo)
		for i, v := range gray.Pix {
			gray.Pix[i] = uint8(float64(v-lo) * 255 / span)
		}
	}

	if b.Dx() >= upscaleBelow || b.Dy() >= upscaleBelow {
		return gray
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	draw.CatmullRom.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Over, nil)
	return dst
}

// rotate90 turns the image a quarter turn clockwise.
func rotate90(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
