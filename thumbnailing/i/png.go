package i

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

type pngGenerator struct {
}

func (d pngGenerator) supportedContentTypes() []string {
	return []string{"image/png"}
}

func (d pngGenerator) matches(contentType string) bool {
	return contentType == "image/png"
}

func (d pngGenerator) GetOriginDimensions(b []byte) (int, int, error) {
	i, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, errors.Wrap(err, "png: error reading dimensions")
	}
	return i.Width, i.Height, nil
}

func (d pngGenerator) Decode(b []byte) (image.Image, error) {
	src, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "png: error decoding image")
	}
	return src, nil
}

func init() {
	generators = append(generators, pngGenerator{})
}
