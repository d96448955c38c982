package imgtensor

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DefaultResampler is the name of the filter used when none is specified.
// It is a bilinear (triangle) filter, the closest match of the default
// resampling used by most Python imaging stacks for downscaling.
const DefaultResampler = "linear"

// Resampler scales an image to the exact width and height requested.
// Pixel values of the generated tensors depend on the filter,
// so the same resampler must be used for every image fed to a given model.
type Resampler interface {
	Resize(img image.Image, width, height int) (*image.NRGBA, error)
	Name() string
}

var (
	resamplersMu sync.RWMutex
	resamplers   = make(map[string]Resampler)
)

// RegisterResampler makes a resampler available by its name.
// Registering a name twice replaces the previous resampler.
func RegisterResampler(r Resampler) {
	resamplersMu.Lock()
	defer resamplersMu.Unlock()

	resamplers[strings.ToLower(r.Name())] = r
}

// LookupResampler returns the resampler registered under name.
// An empty name selects DefaultResampler.
func LookupResampler(name string) (Resampler, error) {
	if name == "" {
		name = DefaultResampler
	}
	resamplersMu.RLock()
	defer resamplersMu.RUnlock()

	r, ok := resamplers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown resampler %q, available: %s", name, strings.Join(resamplerNames(), ", "))
	}
	return r, nil
}

// Resamplers returns the sorted names of all the registered resamplers.
func Resamplers() []string {
	resamplersMu.RLock()
	defer resamplersMu.RUnlock()

	return resamplerNames()
}

// resamplerNames must be called with resamplersMu held.
func resamplerNames() []string {
	names := make([]string, 0, len(resamplers))
	for name := range resamplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// imagingResampler resizes through one of the imaging package filters.
type imagingResampler struct {
	name   string
	filter imaging.ResampleFilter
}

func (r imagingResampler) Name() string { return r.name }

func (r imagingResampler) Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	return imaging.Resize(img, width, height, r.filter), nil
}

// nfntResampler resizes through the nfnt/resize interpolation functions.
type nfntResampler struct {
	name   string
	interp resize.InterpolationFunction
}

func (r nfntResampler) Name() string { return r.name }

func (r nfntResampler) Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	return imgToNRGBA(resize.Resize(uint(width), uint(height), img, r.interp)), nil
}

// drawResampler resizes through the golang.org/x/image/draw scalers.
type drawResampler struct {
	name   string
	interp draw.Interpolator
}

func (r drawResampler) Name() string { return r.name }

func (r drawResampler) Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	r.interp.Scale(dst, dst.Rect, img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

func init() {
	for _, r := range []Resampler{
		imagingResampler{"linear", imaging.Linear},
		imagingResampler{"nearest", imaging.NearestNeighbor},
		imagingResampler{"box", imaging.Box},
		imagingResampler{"catmullrom", imaging.CatmullRom},
		imagingResampler{"lanczos", imaging.Lanczos},

		nfntResampler{"nfnt-bilinear", resize.Bilinear},
		nfntResampler{"nfnt-bicubic", resize.Bicubic},
		nfntResampler{"nfnt-lanczos3", resize.Lanczos3},

		drawResampler{"draw-bilinear", draw.BiLinear},
		drawResampler{"draw-approxbilinear", draw.ApproxBiLinear},
		drawResampler{"draw-catmullrom", draw.CatmullRom},
	} {
		RegisterResampler(r)
	}
}
