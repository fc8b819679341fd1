package metrics

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common/config"
)

var srv *http.Server

type metricsHandler struct {
	next http.Handler
}

func (h metricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	callBeforeMetricsRequested()
	h.next.ServeHTTP(w, r)
}

func Handler() http.Handler {
	return metricsHandler{next: promhttp.Handler()}
}

func Init(cfg config.MetricsConfig) {
	if !cfg.Enabled {
		logrus.Info("Metrics disabled")
		return
	}
	rtr := http.NewServeMux()
	rtr.Handle("/metrics", Handler())

	address := net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port))
	srv = &http.Server{Addr: address, Handler: rtr}
	go func() {
		logrus.WithField("address", address).Info("Started metrics listener. Listening at http://" + address)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logrus.Error("Metrics listener failed: ", err)
		}
	}()
}

func Reload(cfg config.MetricsConfig) {
	Stop()
	Init(cfg)
}

func Stop() {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Warn("Error stopping metrics listener: ", err)
		}
		srv = nil
	}
}
