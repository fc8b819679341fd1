package i

import (
	"bytes"
	"image"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

type bmpGenerator struct {
}

func (d bmpGenerator) supportedContentTypes() []string {
	return []string{"image/bmp", "image/x-bmp", "image/x-ms-bmp"}
}

func (d bmpGenerator) matches(contentType string) bool {
	return slices.Contains(d.supportedContentTypes(), contentType)
}

func (d bmpGenerator) GetOriginDimensions(b []byte) (int, int, error) {
	i, err := bmp.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, errors.Wrap(err, "bmp: error reading dimensions")
	}
	return i.Width, i.Height, nil
}

func (d bmpGenerator) Decode(b []byte) (image.Image, error) {
	src, err := bmp.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "bmp: error decoding image")
	}
	return src, nil
}

func init() {
	generators = append(generators, bmpGenerator{})
}
