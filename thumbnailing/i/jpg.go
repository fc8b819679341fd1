package i

import (
	"bytes"
	"image"
	"image/jpeg"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/t2bot/link-previewer/thumbnailing/u"
)

type jpgGenerator struct {
}

func (d jpgGenerator) supportedContentTypes() []string {
	return []string{"image/jpeg", "image/jpg", "image/pjpeg"}
}

func (d jpgGenerator) matches(contentType string) bool {
	return slices.Contains(d.supportedContentTypes(), contentType)
}

func (d jpgGenerator) GetOriginDimensions(b []byte) (int, int, error) {
	i, err := jpeg.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, errors.Wrap(err, "jpg: error reading dimensions")
	}
	return i.Width, i.Height, nil
}

func (d jpgGenerator) Decode(b []byte) (image.Image, error) {
	src, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "jpg: error decoding image")
	}
	return u.IdentifyAndApplyOrientation(b, src), nil
}

func init() {
	generators = append(generators, jpgGenerator{})
}
