package u

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/version"
	"golang.org/x/net/proxy"
)

// Client is the network session shared by every fetch. It is read-only once built.
type Client struct {
	http      *http.Client
	previews  config.UrlPreviewsConfig
	idleRead  time.Duration
	userAgent string
	language  string
	breakers  *hostBreakers
}

func getProxy(dialer *net.Dialer, proxyUrl string) (proxy.Dialer, error) {
	parsed, err := url.Parse(proxyUrl)
	if err != nil {
		return nil, fmt.Errorf("error parsing proxy url: %w", err)
	}
	return proxy.FromURL(parsed, dialer)
}

// NewClient builds the shared client. Connections go through the network access list and the
// configured proxy.
func NewClient(cfg config.MainRepoConfig) (*Client, error) {
	log := logrus.WithField("component", "http_client")
	dialer := &net.Dialer{
		Timeout:   time.Duration(cfg.TimeoutSeconds.Connect) * time.Second,
		KeepAlive: 30 * time.Second,
	}

	var proxyDialer proxy.ContextDialer
	if cfg.UrlPreviews.ProxyURL != "" {
		pd, err := getProxy(dialer, cfg.UrlPreviews.ProxyURL)
		if err != nil {
			return nil, err
		}
		cd, ok := pd.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("failed proxy type assertion to ContextDialer")
		}
		proxyDialer = cd
	}

	previews := cfg.UrlPreviews
	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		if network != "tcp" && network != "tcp4" && network != "tcp6" {
			return nil, errors.New("invalid network: expected tcp")
		}

		safeIp, safePort, err := getSafeAddress(ctx, addr, previews, log)
		if err != nil {
			return nil, err
		}

		if proxyDialer != nil {
			return proxyDialer.DialContext(ctx, network, net.JoinHostPort(safeIp.String(), safePort))
		}
		return dialer.DialContext(ctx, network, net.JoinHostPort(safeIp.String(), safePort))
	}

	tr := &http.Transport{
		DialContext:           dialContext,
		ResponseHeaderTimeout: time.Duration(cfg.TimeoutSeconds.Headers) * time.Second,
		TLSHandshakeTimeout:   time.Duration(cfg.TimeoutSeconds.Connect) * time.Second,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
	}
	if cfg.UrlPreviews.UnsafeCertificates {
		log.Warn("Ignoring any certificate errors while making requests")
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return NewClientWithTransport(cfg, tr), nil
}

// NewClientWithTransport builds a client around an existing transport, skipping the access list.
func NewClientWithTransport(cfg config.MainRepoConfig, rt http.RoundTripper) *Client {
	return &Client{
		// No overall timeout: body reads are bounded by the idle timer instead
		http:      &http.Client{Transport: rt},
		previews:  cfg.UrlPreviews,
		idleRead:  time.Duration(cfg.TimeoutSeconds.IdleRead) * time.Second,
		userAgent: version.UserAgent(cfg.UrlPreviews.UserAgent),
		language:  AcceptLanguage(cfg.UrlPreviews.DefaultLanguage),
		breakers:  newHostBreakers(cfg.UrlPreviews.BackoffAt),
	}
}

func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}
