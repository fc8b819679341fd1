package u

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestScaleSize(t *testing.T) {
	w, h := ScaleSize(1200, 600, 300, 300)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)

	w, h = ScaleSize(600, 1200, 300, 300)
	assert.Equal(t, 150, w)
	assert.Equal(t, 300, h)

	w, h = ScaleSize(100, 50, 300, 300)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h = ScaleSize(10000, 1, 300, 300)
	assert.Equal(t, 300, w)
	assert.Equal(t, 1, h)

	w, h = ScaleSize(0, 10, 300, 300)
	assert.Equal(t, 0, w)
	assert.Equal(t, 0, h)
}

func TestScaleSizeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 20000).Draw(t, "w")
		h := rapid.IntRange(1, 20000).Draw(t, "h")
		boxW := rapid.IntRange(1, 2000).Draw(t, "boxW")
		boxH := rapid.IntRange(1, 2000).Draw(t, "boxH")

		outW, outH := ScaleSize(w, h, boxW, boxH)
		if outW < 1 || outH < 1 || outW > boxW || outH > boxH {
			t.Fatalf("%dx%d in %dx%d gave %dx%d", w, h, boxW, boxH, outW, outH)
		}
		if outW > w || outH > h {
			t.Fatalf("%dx%d was upscaled to %dx%d", w, h, outW, outH)
		}
		if w <= boxW && h <= boxH {
			if outW != w || outH != h {
				t.Fatalf("%dx%d fits %dx%d but became %dx%d", w, h, boxW, boxH, outW, outH)
			}
		} else if outW != boxW && outH != boxH {
			t.Fatalf("%dx%d in %dx%d touches neither edge: %dx%d", w, h, boxW, boxH, outW, outH)
		}
	})
}

func TestOrientationFromTag(t *testing.T) {
	assert.Equal(t, &ExifOrientation{0, false, false}, orientationFromTag(1))
	assert.Equal(t, &ExifOrientation{0, false, true}, orientationFromTag(2))
	assert.Equal(t, &ExifOrientation{180, false, false}, orientationFromTag(3))
	assert.Equal(t, &ExifOrientation{270, true, false}, orientationFromTag(5))
	assert.Equal(t, &ExifOrientation{270, false, false}, orientationFromTag(6))
	assert.Equal(t, &ExifOrientation{90, false, false}, orientationFromTag(8))
}

func TestGetExifOrientationWithoutExif(t *testing.T) {
	o, err := GetExifOrientation([]byte("definitely not a jpeg"))
	assert.NoError(t, err)
	assert.Nil(t, o)
}
