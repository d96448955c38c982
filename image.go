package imgtensor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrNotImage is returned when the file content is not recognized as an image.
	ErrNotImage = errors.New("not an image file")
	// ErrNotRGB is returned for images without the three RGB color channels.
	ErrNotRGB = errors.New("image has less than 3 color channels")
)

// sniffLen is the number of bytes used to detect the content type.
const sniffLen = 512

// Decode decodes an image and converts it to *image.NRGBA with min-point at (0, 0).
// EXIF orientation is deliberately ignored: the pixels are used in the stored order.
func Decode(r io.Reader) (*image.NRGBA, error) {
	src, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the image: %w", err)
	}

	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return nil, fmt.Errorf("%w: grayscale images are not supported", ErrNotRGB)
	}
	return imgToNRGBA(src), nil
}

// sniff detects the MIME type of the content, based on its first bytes.
// The returned reader yields the whole content, including the sniffed bytes.
func sniff(r io.Reader) (string, io.Reader, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	buf = buf[:n]

	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(buf), io.MultiReader(bytes.NewReader(buf), r), nil
}

// isImageType reports whether the sniffed content type denotes an image.
func isImageType(ctype string) bool {
	return strings.HasPrefix(ctype, "image/")
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}
