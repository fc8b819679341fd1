package config

type GeneralConfig struct {
	LogDirectory string `yaml:"logDirectory"`
	LogColors    bool   `yaml:"logColors"`
	JsonLogs     bool   `yaml:"jsonLogs"`
	LogLevel     string `yaml:"logLevel"`
}

type UrlPreviewsConfig struct {
	UserAgent              string   `yaml:"userAgent"`
	DefaultLanguage        string   `yaml:"defaultLanguage"`
	MaxContentLengthBytes  int64    `yaml:"maxContentLengthBytes"`
	FillChunkBytes         int      `yaml:"fillChunkBytes"`
	PreviewTypes           []string `yaml:"previewTypes,flow"`
	DisallowedNetworks     []string `yaml:"disallowedNetworks,flow"`
	AllowedNetworks        []string `yaml:"allowedNetworks,flow"`
	UnsafeCertificates     bool     `yaml:"previewUnsafeCertificates"`
	ProxyURL               string   `yaml:"proxyUrl"`
	NumWorkers             int      `yaml:"numWorkers"`
	BackoffAt              int      `yaml:"backoffAt"`
	UnsupportedMemoMinutes int      `yaml:"unsupportedMemoMinutes"`
}

type CacheConfig struct {
	MaxInstances int `yaml:"maxInstances"`
}

type BlurhashConfig struct {
	Enabled     bool `yaml:"enabled"`
	XComponents int  `yaml:"xComponents"`
	YComponents int  `yaml:"yComponents"`
}

type ThumbnailsConfig struct {
	Width         int            `yaml:"width"`
	Height        int            `yaml:"height"`
	MaxPixels     int            `yaml:"maxPixels"`
	DisplayMargin int            `yaml:"displayMargin"`
	Blurhash      BlurhashConfig `yaml:"blurhash"`
}

type TimeoutsConfig struct {
	Connect  int `yaml:"connectSeconds"`
	Headers  int `yaml:"headersSeconds"`
	IdleRead int `yaml:"idleReadSeconds"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

type MainRepoConfig struct {
	General        GeneralConfig     `yaml:"repo"`
	UrlPreviews    UrlPreviewsConfig `yaml:"urlPreviews"`
	Cache          CacheConfig       `yaml:"cache"`
	Thumbnails     ThumbnailsConfig  `yaml:"thumbnails"`
	TimeoutSeconds TimeoutsConfig    `yaml:"timeouts"`
	Metrics        MetricsConfig     `yaml:"metrics"`
	Sentry         SentryConfig      `yaml:"sentry"`
}

// Validate replaces values which would leave the previewer unable to work.
func (c *MainRepoConfig) Validate() {
	d := NewDefaultMainConfig()
	if c.UrlPreviews.MaxContentLengthBytes <= 0 {
		c.UrlPreviews.MaxContentLengthBytes = d.UrlPreviews.MaxContentLengthBytes
	}
	if c.UrlPreviews.FillChunkBytes <= 0 {
		c.UrlPreviews.FillChunkBytes = d.UrlPreviews.FillChunkBytes
	}
	if c.UrlPreviews.NumWorkers <= 0 {
		c.UrlPreviews.NumWorkers = 1
	}
	if len(c.UrlPreviews.PreviewTypes) == 0 {
		c.UrlPreviews.PreviewTypes = d.UrlPreviews.PreviewTypes
	}
	if c.Cache.MaxInstances <= 0 {
		c.Cache.MaxInstances = 1
	}
	if c.Thumbnails.Width <= 0 || c.Thumbnails.Height <= 0 {
		c.Thumbnails.Width = d.Thumbnails.Width
		c.Thumbnails.Height = d.Thumbnails.Height
	}
	if c.Thumbnails.DisplayMargin < 0 {
		c.Thumbnails.DisplayMargin = 0
	}
}
