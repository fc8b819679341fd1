package u

import (
	"errors"
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/t2bot/link-previewer/url_previewing/m"
	"golang.org/x/net/idna"
)

var errNotFetchable = errors.New("URL is not an http or https address")

// Classify makes the first guess about a URL without touching the network.
func Classify(rawUrl string) m.ContentType {
	if _, err := ParseTarget(rawUrl); err != nil {
		return m.ContentUnsupported
	}
	return m.ContentUnknown
}

// ParseTarget parses a URL the fetch pipeline is able to request.
func ParseTarget(rawUrl string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawUrl))
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, errNotFetchable
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		parsed.Scheme = strings.ToLower(parsed.Scheme)
		return parsed, nil
	default:
		return nil, errNotFetchable
	}
}

// Normalize returns the cache key for a URL. Equal keys mean the same preview.
func Normalize(rawUrl string) string {
	trimmed := strings.TrimSpace(rawUrl)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := parsed.Hostname()
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	host = strings.ToLower(host)

	port := parsed.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	out := &url.URL{
		Scheme:  scheme,
		User:    parsed.User,
		Host:    host,
		Path:    parsed.Path,
		RawPath: parsed.RawPath,
	}
	if port != "" {
		out.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		out.Host = "[" + host + "]"
	}
	if out.Path == "" {
		out.Path = "/"
		out.RawPath = ""
	}
	if parsed.RawQuery != "" {
		// Segments stay encoded as given, only their order changes
		segments := strings.Split(parsed.RawQuery, "&")
		sort.Strings(segments)
		out.RawQuery = strings.Join(segments, "&")
	}
	return out.String()
}
