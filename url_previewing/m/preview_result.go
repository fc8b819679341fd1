package m

import "image"

// PreviewImage is the decoded content of a previewed URL. The full image is kept next to the
// thumbnail so a full-resolution view can be produced without fetching again.
type PreviewImage struct {
	Full            image.Image
	Thumbnail       image.Image
	Width           int
	Height          int
	ThumbnailWidth  int
	ThumbnailHeight int
	MimeType        string
	Blurhash        string
}

// Payload accompanies a state change. Text states carry Text, Image states carry Image and the
// other states carry nothing.
type Payload struct {
	Text    string
	IsError bool
	Image   *PreviewImage
}

func (p Payload) IsEmpty() bool {
	return p.Text == "" && p.Image == nil
}

func ErrorText(text string) Payload {
	return Payload{Text: text, IsError: true}
}

func ImagePayload(img *PreviewImage) Payload {
	return Payload{Image: img}
}
