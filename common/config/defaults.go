package config

func NewDefaultMainConfig() MainRepoConfig {
	return MainRepoConfig{
		General: GeneralConfig{
			LogDirectory: "logs",
			LogColors:    false,
			JsonLogs:     false,
			LogLevel:     "info",
		},
		UrlPreviews: UrlPreviewsConfig{
			UserAgent:             "link-previewer",
			DefaultLanguage:       "",
			MaxContentLengthBytes: 10485760, // 10mb
			FillChunkBytes:        65536,
			PreviewTypes: []string{
				"image/*",
			},
			DisallowedNetworks: []string{},
			AllowedNetworks: []string{
				"0.0.0.0/0", // "Everything"
				"::/0",
			},
			UnsafeCertificates:     false,
			ProxyURL:               "",
			NumWorkers:             10,
			BackoffAt:              10,
			UnsupportedMemoMinutes: 15,
		},
		Cache: CacheConfig{
			MaxInstances: 20,
		},
		Thumbnails: ThumbnailsConfig{
			Width:         300,
			Height:        300,
			MaxPixels:     32000000, // 32M
			DisplayMargin: 20,
			Blurhash: BlurhashConfig{
				Enabled:     true,
				XComponents: 4,
				YComponents: 3,
			},
		},
		TimeoutSeconds: TimeoutsConfig{
			Connect:  10,
			Headers:  10,
			IdleRead: 30,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "localhost",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Dsn:         "not supplied",
			Environment: "",
			Debug:       false,
		},
	}
}
