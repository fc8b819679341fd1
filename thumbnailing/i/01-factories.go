package i

import (
	"image"
)

type Generator interface {
	supportedContentTypes() []string
	matches(contentType string) bool
	GetOriginDimensions(b []byte) (int, int, error)
	Decode(b []byte) (image.Image, error)
}

var generators = make([]Generator, 0)

func GetGenerator(contentType string) Generator {
	for _, g := range generators {
		if g.matches(contentType) {
			return g
		}
	}
	return nil
}

func GetSupportedContentTypes() []string {
	a := make([]string, 0)
	for _, d := range generators {
		a = append(a, d.supportedContentTypes()...)
	}
	return a
}
