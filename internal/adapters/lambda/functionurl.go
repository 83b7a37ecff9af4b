// Package lambdaadapter serves the HTTP handler behind an AWS Lambda Function URL.
package lambdaadapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// FunctionURL converts Function URL events to http.Requests and back.
type FunctionURL struct {
	handler http.Handler
}

func NewFunctionURL(handler http.Handler) *FunctionURL {
	return &FunctionURL{handler: handler}
}

func (f *FunctionURL) Serve(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	req, err := toHTTPRequest(ctx, event)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}

	rw := newResponseBuffer()
	f.handler.ServeHTTP(rw, req)
	return rw.toEvent(), nil
}

func toHTTPRequest(ctx context.Context, event events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decode base64 body: %w", err)
		}
		body = decoded
	}

	path := event.RawPath
	if path == "" {
		path = "/"
	}
	target := path
	if event.RawQueryString != "" {
		target += "?" + event.RawQueryString
	}

	method := event.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build http request: %w", err)
	}
	for name, value := range event.Headers {
		req.Header.Set(name, value)
	}
	for _, cookie := range event.Cookies {
		req.Header.Add("Cookie", cookie)
	}
	if req.Header.Get("X-Request-Id") == "" && event.RequestContext.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestContext.RequestID)
	}
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	req.Host = event.RequestContext.DomainName
	req.ContentLength = int64(len(body))
	return req, nil
}

type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (r *responseBuffer) Header() http.Header {
	return r.header
}

func (r *responseBuffer) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *responseBuffer) toEvent() events.LambdaFunctionURLResponse {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}

	headers := make(map[string]string, len(r.header))
	var cookies []string
	for name, values := range r.header {
		if http.CanonicalHeaderKey(name) == "Set-Cookie" {
			cookies = append(cookies, values...)
			continue
		}
		headers[name] = strings.Join(values, ",")
	}

	resp := events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    headers,
		Cookies:    cookies,
	}
	if isTextual(r.header.Get("Content-Type")) {
		resp.Body = r.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(r.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/json" ||
		strings.HasSuffix(mediaType, "+json") ||
		mediaType == "application/xml"
}

// Dispatch routes a raw invocation payload: warmup pings first, then Function URL requests.
func Dispatch(ctx context.Context, event json.RawMessage, fn *FunctionURL, warmer *Warmer) (any, error) {
	if warmup, ok := IsWarmupEvent(event); ok {
		return warmer.Handle(ctx, warmup), nil
	}

	var req events.LambdaFunctionURLRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("decode function url event: %w", err)
	}
	return fn.Serve(ctx, req)
}
