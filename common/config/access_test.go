package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	p := path.Join(t.TempDir(), "url-previewer.yaml")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultMainConfig(), *c)

	_, err = os.Stat(p)
	assert.NoError(t, err)

	// The written file loads back to the same values
	again, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, *c, *again)
}

func TestLoadOverlaysDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(path.Join(dir, "01-base.yaml"), []byte(`
cache:
  maxInstances: 5
urlPreviews:
  userAgent: "TestAgent/1.0"
`), 0644))
	require.NoError(t, os.WriteFile(path.Join(dir, "02-override.yaml"), []byte(`
cache:
  maxInstances: 7
thumbnails:
  blurhash:
    enabled: false
`), 0644))

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Cache.MaxInstances)
	assert.Equal(t, "TestAgent/1.0", c.UrlPreviews.UserAgent)
	assert.False(t, c.Thumbnails.Blurhash.Enabled)
	assert.Equal(t, 300, c.Thumbnails.Width)
}

func TestLoadRejectsBadYaml(t *testing.T) {
	p := path.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(p, []byte("cache: ["), 0644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := MainRepoConfig{}
	c.Validate()

	d := NewDefaultMainConfig()
	assert.Equal(t, d.UrlPreviews.MaxContentLengthBytes, c.UrlPreviews.MaxContentLengthBytes)
	assert.Equal(t, d.UrlPreviews.FillChunkBytes, c.UrlPreviews.FillChunkBytes)
	assert.Equal(t, d.UrlPreviews.PreviewTypes, c.UrlPreviews.PreviewTypes)
	assert.Equal(t, 1, c.UrlPreviews.NumWorkers)
	assert.Equal(t, 1, c.Cache.MaxInstances)
	assert.Equal(t, 300, c.Thumbnails.Width)
	assert.Equal(t, 300, c.Thumbnails.Height)
}
