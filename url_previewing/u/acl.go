package u

import (
	"context"
	"net"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/common/config"
)

func getSafeAddress(ctx context.Context, addr string, cfg config.UrlPreviewsConfig, log *logrus.Entry) (net.IP, string, error) {
	log.Debug("Checking address: " + addr)
	realHost, p, err := net.SplitHostPort(addr)
	if err != nil {
		log.Debug("Error parsing host and port: ", err)
		sentry.CaptureException(err)
		realHost = addr
	}

	ipAddr := net.IPv4(127, 0, 0, 1)
	if realHost != "localhost" {
		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, realHost)
		if err != nil {
			log.Debug("Error looking up DNS record for preview - assuming invalid host:", err)
			return nil, "", common.ErrInvalidHost
		}
		if len(addrs) == 0 {
			return nil, "", common.ErrHostNotFound
		}
		ipAddr = addrs[0].IP
	}

	allowedCidrs := cfg.AllowedNetworks
	if allowedCidrs == nil {
		allowedCidrs = []string{"0.0.0.0/0", "::/0"}
	}
	deniedCidrs := append(make([]string, 0, len(cfg.DisallowedNetworks)+2), cfg.DisallowedNetworks...)

	// 0.0.0.0 and :: are unroutable and end up on localhost
	deniedCidrs = append(deniedCidrs, "0.0.0.0/32")
	deniedCidrs = append(deniedCidrs, "::/128")

	if !isAllowed(ipAddr, allowedCidrs, deniedCidrs, log) {
		return nil, "", common.ErrHostNotAllowed
	}
	return ipAddr, p, nil
}

func isAllowed(ip net.IP, allowed []string, disallowed []string, log *logrus.Entry) bool {
	// The deny list is normally the shorter one
	if inRange(ip, disallowed, log) {
		log.Debug("Host found on deny list - rejecting")
		return false
	}

	if inRange(ip, allowed, log) {
		log.Debug("Host allowed due to allow list")
		return true
	}

	log.Debug("Host is not on either allow list or deny list, considering deny listed")
	return false
}

func inRange(ip net.IP, cidrs []string, log *logrus.Entry) bool {
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Warn("Error parsing network range: ", err)
			sentry.CaptureException(err)
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}

	return false
}
