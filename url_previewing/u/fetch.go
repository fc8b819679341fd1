package u

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rubyist/circuitbreaker"
	"github.com/ryanuber/go-glob"
	"github.com/t2bot/link-previewer/common"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/metrics"
	"github.com/t2bot/link-previewer/thumbnailing"
	"github.com/t2bot/link-previewer/url_previewing/m"
	"github.com/t2bot/link-previewer/util/readers"
)

var errIdleTimeout = errors.New("no data received within the idle read timeout")

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCancelled, err)
	}
	return nil
}

// Fetch downloads the target into memory. onHeaders is called once the response headers show
// previewable content, before the body is read. Cancelling ctx aborts the fetch at the next
// suspension point with an error wrapping common.ErrCancelled.
func Fetch(ctx rcontext.RequestContext, client *Client, target *url.URL, onHeaders func(m.Headers)) (*m.FetchResult, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	cb := client.breakers.get(target.Hostname())
	if !cb.Ready() {
		return nil, fmt.Errorf("%w: %w", common.ErrNetworkFailure, common.ErrHostUnavailable)
	}

	fetchCtx, cancelFetch := context.WithCancelCause(ctx.Context)
	defer cancelFetch(nil)

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	req.Header.Set("User-Agent", client.userAgent)
	req.Header.Set("Accept-Language", client.language)

	started := time.Now()
	ctx.Log.Debug("Fetching remote content...")
	resp, err := client.http.Do(req)
	if err != nil {
		return nil, transferError(ctx, fetchCtx, cb, err)
	}
	defer resp.Body.Close()

	if err = checkCancelled(ctx); err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		cb.Fail()
	} else {
		cb.Success()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ctx.Log.Warn("Received status code " + strconv.Itoa(resp.StatusCode))
		return nil, fmt.Errorf("%w: server replied with status %d", common.ErrNetworkFailure, resp.StatusCode)
	}

	maxLength := client.previews.MaxContentLengthBytes
	if resp.ContentLength > maxLength {
		return nil, fmt.Errorf("%w: %s declared, %s allowed", common.ErrContentTooLarge,
			humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(maxLength)))
	}

	headers, err := parseHeaders(resp, client.previews.PreviewTypes)
	if err != nil {
		ctx.Log.Debug(err)
		return nil, err
	}
	if onHeaders != nil {
		onHeaders(headers)
	}

	body := readers.NewIdleCloser(resp.Body, client.idleRead, func() {
		cancelFetch(errIdleTimeout)
	})
	defer body.Close()

	var data []byte
	if headers.ContentLength >= 0 {
		data = make([]byte, headers.ContentLength)
		var n int
		n, err = fillKnown(ctx, body, data, client.previews.FillChunkBytes)
		metrics.FetchedBytes.Add(float64(n))
	} else {
		data, err = fillUnknown(ctx, body, maxLength, client.previews.FillChunkBytes)
		metrics.FetchedBytes.Add(float64(len(data)))
	}
	if err != nil {
		return nil, transferError(ctx, fetchCtx, cb, err)
	}

	metrics.FetchDuration.Observe(time.Since(started).Seconds())
	ctx.Log.Debugf("Fetched %s of %s", humanize.IBytes(uint64(len(data))), headers.MimeType)
	return &m.FetchResult{Headers: headers, Data: data}, nil
}

func parseHeaders(resp *http.Response, previewTypes []string) (m.Headers, error) {
	h := m.Headers{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}

	mediaType, _, err := mime.ParseMediaType(h.ContentType)
	if err != nil && !(errors.Is(err, mime.ErrInvalidMediaParameter) && mediaType != "") {
		return h, fmt.Errorf("%w: malformed content type %q", common.ErrUnsupportedContent, h.ContentType)
	}
	h.MimeType = mediaType

	matched := false
	for _, supportedType := range previewTypes {
		if glob.Glob(supportedType, mediaType) {
			matched = true
			break
		}
	}
	if !matched {
		return h, fmt.Errorf("%w: %s", common.ErrUnsupportedContent, mediaType)
	}
	if !thumbnailing.IsSupported(mediaType) {
		return h, fmt.Errorf("%w: no decoder for %s", common.ErrUnsupportedContent, mediaType)
	}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		h.Filename = params["filename"]
	}
	return h, nil
}

func transferError(ctx context.Context, fetchCtx context.Context, cb *circuit.Breaker, err error) error {
	if errors.Is(err, common.ErrContentTooLarge) || errors.Is(err, common.ErrCancelled) {
		return err
	}
	if cerr := checkCancelled(ctx); cerr != nil {
		return cerr
	}
	if errors.Is(context.Cause(fetchCtx), errIdleTimeout) {
		cb.Fail()
		return fmt.Errorf("%w: %w", common.ErrNetworkFailure, errIdleTimeout)
	}
	if errors.Is(err, common.ErrHostNotAllowed) || errors.Is(err, common.ErrInvalidHost) || errors.Is(err, common.ErrHostNotFound) {
		return fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	cb.Fail()
	return fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
}
