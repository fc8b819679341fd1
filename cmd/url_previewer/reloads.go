package main

import (
	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/logging"
	"github.com/t2bot/link-previewer/metrics"
	"github.com/t2bot/link-previewer/previewer"
)

func setupReloads(svc *previewer.Service) {
	config.OnReload(func(configNow *config.MainRepoConfig, configNew *config.MainRepoConfig) {
		if configNew.General.LogLevel != configNow.General.LogLevel {
			if err := logging.SetLevel(configNew.General.LogLevel); err != nil {
				logrus.Error("Error changing log level: ", err)
			}
		}
		if configNew.Metrics != configNow.Metrics {
			metrics.Reload(configNew.Metrics)
		}
		if err := svc.Reconfigure(*configNew); err != nil {
			logrus.Error("Error reconfiguring previewer: ", err)
		}
	})
}
