package u

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

func IdentifyAndApplyOrientation(origBytes []byte, src image.Image) image.Image {
	orientation, err := GetExifOrientation(origBytes)
	if err != nil {
		// assume no orientation if the exif header is unreadable
		logrus.Warn("Non-fatal error reading exif headers: ", err.Error())
		orientation = nil
	}
	return ApplyOrientation(src, orientation)
}

func ApplyOrientation(src image.Image, orientation *ExifOrientation) image.Image {
	result := src
	if orientation == nil {
		return result
	}

	// Rotate first
	switch orientation.RotateDegrees {
	case 90:
		result = imaging.Rotate90(result)
	case 180:
		result = imaging.Rotate180(result)
	case 270:
		result = imaging.Rotate270(result)
	}

	// Flip second
	if orientation.FlipHorizontal {
		result = imaging.FlipH(result)
	}
	if orientation.FlipVertical {
		result = imaging.FlipV(result)
	}
	return result
}
