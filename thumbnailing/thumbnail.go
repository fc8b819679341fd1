package thumbnailing

import (
	"fmt"
	"image"
	"image/draw"
	"reflect"
	"strconv"
	"strings"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/metrics"
	"github.com/t2bot/link-previewer/thumbnailing/i"
	"github.com/t2bot/link-previewer/thumbnailing/u"
)

func IsSupported(contentType string) bool {
	return i.GetGenerator(contentType) != nil
}

// SupportedContentTypes lists every MIME type a decoder exists for.
func SupportedContentTypes() []string {
	return i.GetSupportedContentTypes()
}

// Decode turns fetched bytes into an image. The MIME hint picks the decoder; when it is empty or
// unknown the format is sniffed from the content. The returned string is the MIME type used.
func Decode(ctx rcontext.RequestContext, mimeHint string, b []byte) (image.Image, string, error) {
	if len(b) == 0 {
		return nil, mimeHint, fmt.Errorf("%w: no image data", common.ErrDecodeFailure)
	}

	contentType := strings.ToLower(mimeHint)
	generator := i.GetGenerator(contentType)
	if generator == nil {
		contentType, _, _ = strings.Cut(mimetype.Detect(b).String(), ";")
		ctx.Log.Debugf("Sniffed %s (hint was %q)", contentType, mimeHint)
		generator = i.GetGenerator(contentType)
	}
	if generator == nil {
		return nil, contentType, fmt.Errorf("%w: %s is not a supported image format", common.ErrDecodeFailure, contentType)
	}
	ctx.Log.Debug("Using generator: ", reflect.TypeOf(generator).Name())

	// Check the pixel count before allocating the image
	w, h, err := generator.GetOriginDimensions(b)
	if err != nil {
		return nil, contentType, fmt.Errorf("%w: %s", common.ErrDecodeFailure, err.Error())
	}
	if maxPixels := ctx.Config.Thumbnails.MaxPixels; maxPixels > 0 && w*h >= maxPixels {
		ctx.Log.Debug("Image too large: too many pixels")
		return nil, contentType, fmt.Errorf("%w: %w", common.ErrDecodeFailure, common.ErrMediaDimensionsTooLarge)
	}

	img, err := generator.Decode(b)
	if err != nil {
		return nil, contentType, fmt.Errorf("%w: %s", common.ErrDecodeFailure, err.Error())
	}
	return img, contentType, nil
}

// Thumbnail scales src into the box with a bilinear filter. Images which already fit are copied
// at their native size.
func Thumbnail(src image.Image, boxW int, boxH int) image.Image {
	b := src.Bounds()
	w, h := u.ScaleSize(b.Dx(), b.Dy(), boxW, boxH)
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(src)
	}
	metrics.ThumbnailsGenerated.WithLabelValues(strconv.Itoa(boxW), strconv.Itoa(boxH)).Inc()
	return imaging.Resize(src, w, h, imaging.Linear)
}

// FitForDisplay scales src to fit an area less a margin on each axis.
func FitForDisplay(src image.Image, areaW int, areaH int, margin int) image.Image {
	boxW := areaW - margin
	boxH := areaH - margin
	if boxW < 1 {
		boxW = 1
	}
	if boxH < 1 {
		boxH = 1
	}
	b := src.Bounds()
	if b.Dx() <= boxW && b.Dy() <= boxH {
		return src
	}
	return imaging.Fit(src, boxW, boxH, imaging.Linear)
}

// Blurhash computes the placeholder hash. Callers pass the thumbnail since the cost grows with the
// pixel count.
func Blurhash(src image.Image, xComponents int, yComponents int) (string, error) {
	if xComponents < 1 || xComponents > 9 {
		xComponents = 4
	}
	if yComponents < 1 || yComponents > 9 {
		yComponents = 3
	}

	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	return blurhash.Encode(xComponents, yComponents, rgba)
}
