package u

import (
	"bytes"
	"fmt"

	"github.com/dsoprea/go-exif/v3"
	"github.com/pkg/errors"
)

type ExifOrientation struct {
	RotateDegrees  int // 0, 90, 180, or 270
	FlipVertical   bool
	FlipHorizontal bool
}

func GetExifOrientation(img []byte) (*ExifOrientation, error) {
	rawExif, err := exif.SearchAndExtractExifWithReader(bytes.NewReader(img))
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "exif: error reading possible exif data")
	}

	tags, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, errors.Wrap(err, "exif: error parsing exif data")
	}

	var tag exif.ExifTag
	for _, t := range tags {
		if t.TagName == "Orientation" {
			tag = t
			break
		}
	}
	if tag.TagName != "Orientation" {
		return nil, nil
	}

	var orientation uint16 = 0
	vals, ok := tag.Value.([]uint16)
	if !ok || len(vals) <= 0 {
		orientation, ok = tag.Value.(uint16)
		if !ok {
			return nil, errors.New("exif: error parsing orientation: parse error (not an int)")
		}
	} else {
		orientation = vals[0]
	}

	// Some devices write 0 when they mean "no orientation"
	if orientation == 0 {
		return nil, nil
	}
	if orientation > 8 {
		return nil, fmt.Errorf("orientation out of range: %d", orientation)
	}
	return orientationFromTag(orientation), nil
}

func orientationFromTag(orientation uint16) *ExifOrientation {
	flipHorizontal := orientation < 5 && (orientation%2) == 0
	flipVertical := orientation > 4 && (orientation%2) != 0
	degrees := 0

	switch orientation {
	case 3, 4:
		degrees = 180
	case 5, 6:
		degrees = 270
	case 7, 8:
		degrees = 90
	}

	return &ExifOrientation{degrees, flipVertical, flipHorizontal}
}
