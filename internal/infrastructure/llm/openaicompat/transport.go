package openaicompat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

var errUpstreamTimeout = errors.New("upstream request timed out")

type errorBodyKey struct{}

// errorBody holds the raw body of a non-2xx completion response.
type errorBody struct {
	raw []byte
}

func (b *errorBody) text() string {
	return strings.TrimSpace(string(b.raw))
}

func withErrorBody(ctx context.Context, b *errorBody) context.Context {
	return context.WithValue(ctx, errorBodyKey{}, b)
}

// errorBodyTransport copies error response bodies into the request's errorBody
// before go-openai decodes them, and hands the same bytes on.
type errorBodyTransport struct {
	base http.RoundTripper
}

func (t errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	capture, ok := req.Context().Value(errorBodyKey{}).(*errorBody)
	if !ok {
		return resp, nil
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	capture.raw = raw
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
