package i

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"

	"github.com/pkg/errors"
)

type gifGenerator struct {
}

func (d gifGenerator) supportedContentTypes() []string {
	return []string{"image/gif"}
}

func (d gifGenerator) matches(contentType string) bool {
	return contentType == "image/gif"
}

func (d gifGenerator) GetOriginDimensions(b []byte) (int, int, error) {
	i, err := gif.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return 0, 0, errors.Wrap(err, "gif: error reading dimensions")
	}
	return i.Width, i.Height, nil
}

// Decode returns the first frame, drawn onto the full logical screen.
func (d gifGenerator) Decode(b []byte) (image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "gif: error decoding image")
	}
	if len(g.Image) == 0 {
		return nil, errors.New("gif: no frames")
	}

	frameImg := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	draw.Draw(frameImg, frameImg.Bounds(), g.Image[0], image.Point{X: 0, Y: 0}, draw.Over)
	return frameImg, nil
}

func init() {
	generators = append(generators, gifGenerator{})
}
