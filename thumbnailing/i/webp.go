package i

import (
	"bytes"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/webp"
)

// Animated webp is not supported by the decoder and fails like any other corrupt file.
type webpGenerator struct {
}

func (d webpGenerator) supportedContentTypes() []string {
	return []string{"image/webp"}
}

func (d webpGenerator) matches(contentType string) bool {
	return contentType == "image/webp"
}

func (d webpGenerator) GetOriginDimensions(b []byte) (int, int, error) {
	i, err := webp.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, errors.Wrap(err, "webp: error reading dimensions")
	}
	return i.Width, i.Height, nil
}

func (d webpGenerator) Decode(b []byte) (image.Image, error) {
	src, err := webp.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "webp: error decoding image")
	}
	return src, nil
}

func init() {
	generators = append(generators, webpGenerator{})
}
