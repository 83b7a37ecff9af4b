package lambdaadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Seen-Request-Id", r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
			"sort":   r.URL.Query().Get("sort"),
			"body":   string(body),
		})
	})
}

func TestServeConvertsRequestAndResponse(t *testing.T) {
	fn := NewFunctionURL(echoHandler())
	event := events.LambdaFunctionURLRequest{
		RawPath:         "/functions/v1/translate",
		RawQueryString:  "sort=-title",
		Headers:         map[string]string{"content-type": "application/json"},
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"text":"Hello"}`)),
		IsBase64Encoded: true,
		RequestContext: events.LambdaFunctionURLRequestContext{
			RequestID: "aws-req-1",
			HTTP:      events.LambdaFunctionURLRequestContextHTTPDescription{Method: http.MethodPost},
		},
	}

	resp, err := fn.Serve(context.Background(), event)
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if resp.IsBase64Encoded {
		t.Fatalf("json response must not be base64 encoded")
	}
	if resp.Headers["X-Seen-Request-Id"] != "aws-req-1" {
		t.Fatalf("expected lambda request id forwarded, got %q", resp.Headers["X-Seen-Request-Id"])
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["method"] != http.MethodPost || got["path"] != "/functions/v1/translate" || got["sort"] != "-title" || got["body"] != `{"text":"Hello"}` {
		t.Fatalf("unexpected echo %#v", got)
	}
}

func TestServeEncodesBinaryBodies(t *testing.T) {
	fn := NewFunctionURL(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	}))

	resp, err := fn.Serve(context.Background(), events.LambdaFunctionURLRequest{RawPath: "/v1/documents/export.xlsx"})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if !resp.IsBase64Encoded {
		t.Fatalf("expected base64 body for spreadsheet")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Body)
	if err != nil || len(raw) != 4 || raw[0] != 0x50 {
		t.Fatalf("unexpected body %q err=%v", resp.Body, err)
	}
}

func TestServeRejectsBadBase64(t *testing.T) {
	_, err := NewFunctionURL(echoHandler()).Serve(context.Background(), events.LambdaFunctionURLRequest{
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

type invokerFake struct {
	calls    atomic.Int32
	payloads chan []byte
	err      error
}

func (f *invokerFake) Invoke(_ context.Context, params *lambdasdk.InvokeInput, _ ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error) {
	f.calls.Add(1)
	if params.InvocationType != types.InvocationTypeEvent {
		return nil, errors.New("expected async invocation")
	}
	f.payloads <- params.Payload
	return &lambdasdk.InvokeOutput{}, f.err
}

func newTestWarmer(inv Invoker) *Warmer {
	return &Warmer{
		functionName: "docvault-translate",
		newInvoker:   func(context.Context) (Invoker, error) { return inv, nil },
	}
}

func TestIsWarmupEvent(t *testing.T) {
	warmup, ok := IsWarmupEvent(json.RawMessage(`{"source":"warmup","concurrency":3}`))
	if !ok || warmup.Concurrency != 3 {
		t.Fatalf("expected warmup with concurrency 3, got %#v ok=%v", warmup, ok)
	}
	if _, ok := IsWarmupEvent(json.RawMessage(`{"rawPath":"/v1/translate"}`)); ok {
		t.Fatalf("function url event must not be treated as warmup")
	}
	if _, ok := IsWarmupEvent(json.RawMessage(`[1,2]`)); ok {
		t.Fatalf("non-object payload must not be treated as warmup")
	}
}

func TestWarmerSelfInvokesWithoutRecursion(t *testing.T) {
	inv := &invokerFake{payloads: make(chan []byte, 2)}
	resp := newTestWarmer(inv).Handle(context.Background(), &WarmupEvent{Source: WarmupSource, Concurrency: 2})

	if resp.InstancesWarmed != 3 || resp.Status != "warm" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if inv.calls.Load() != 2 {
		t.Fatalf("expected 2 self invocations, got %d", inv.calls.Load())
	}
	close(inv.payloads)
	for payload := range inv.payloads {
		var child WarmupEvent
		if err := json.Unmarshal(payload, &child); err != nil {
			t.Fatalf("decode child payload: %v", err)
		}
		if child.Concurrency != 0 {
			t.Fatalf("child warmups must not fan out, got concurrency %d", child.Concurrency)
		}
	}
}

func TestWarmerCountsOnlySelfWhenInvokeFails(t *testing.T) {
	inv := &invokerFake{payloads: make(chan []byte, 1), err: errors.New("throttled")}
	resp := newTestWarmer(inv).Handle(context.Background(), &WarmupEvent{Source: WarmupSource, Concurrency: 1})
	if resp.InstancesWarmed != 1 {
		t.Fatalf("expected 1 warmed instance, got %d", resp.InstancesWarmed)
	}
}

func TestDispatchRoutesWarmupAndRequests(t *testing.T) {
	fn := NewFunctionURL(echoHandler())
	warmer := newTestWarmer(&invokerFake{payloads: make(chan []byte, 1)})

	out, err := Dispatch(context.Background(), json.RawMessage(`{"source":"warmup"}`), fn, warmer)
	if err != nil {
		t.Fatalf("Dispatch(warmup) error = %v", err)
	}
	if _, ok := out.(WarmupResponse); !ok {
		t.Fatalf("expected WarmupResponse, got %T", out)
	}

	raw, _ := json.Marshal(events.LambdaFunctionURLRequest{
		RawPath:        "/healthz",
		RequestContext: events.LambdaFunctionURLRequestContext{HTTP: events.LambdaFunctionURLRequestContextHTTPDescription{Method: http.MethodGet}},
	})
	out, err = Dispatch(context.Background(), raw, fn, warmer)
	if err != nil {
		t.Fatalf("Dispatch(request) error = %v", err)
	}
	resp, ok := out.(events.LambdaFunctionURLResponse)
	if !ok || resp.StatusCode != http.StatusAccepted {
		t.Fatalf("unexpected dispatch result %#v", out)
	}
}
