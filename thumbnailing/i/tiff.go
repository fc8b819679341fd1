package i

import (
	"bytes"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

type tiffGenerator struct {
}

func (d tiffGenerator) supportedContentTypes() []string {
	return []string{"image/tiff"}
}

func (d tiffGenerator) matches(contentType string) bool {
	return contentType == "image/tiff"
}

func (d tiffGenerator) GetOriginDimensions(b []byte) (int, int, error) {
	i, err := tiff.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, errors.Wrap(err, "tiff: error reading dimensions")
	}
	return i.Width, i.Height, nil
}

func (d tiffGenerator) Decode(b []byte) (image.Image, error) {
	src, err := tiff.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "tiff: error decoding image")
	}
	return src, nil
}

func init() {
	generators = append(generators, tiffGenerator{})
}
