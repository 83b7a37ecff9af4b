package lambdaadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const (
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for siblings to overlap.
	WarmupDelay = 75 * time.Millisecond
)

type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// Invoker is the slice of the Lambda API used for self-invocation.
type Invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

type Warmer struct {
	functionName string
	newInvoker   func(ctx context.Context) (Invoker, error)
	delay        time.Duration
}

// NewWarmer builds the Lambda client lazily, on the first warmup that asks for concurrency.
func NewWarmer(functionName string) *Warmer {
	return &Warmer{
		functionName: functionName,
		newInvoker:   newSDKInvoker,
		delay:        WarmupDelay,
	}
}

func newSDKInvoker(ctx context.Context) (Invoker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return lambdasdk.NewFromConfig(cfg), nil
}

func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var probe map[string]any
	if err := json.Unmarshal(event, &probe); err != nil {
		return nil, false
	}
	source, ok := probe["source"].(string)
	if !ok || source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: source}
	if concurrency, ok := probe["concurrency"].(float64); ok && concurrency > 0 {
		warmup.Concurrency = int(concurrency)
	}
	return warmup, true
}

func (w *Warmer) Handle(ctx context.Context, warmup *WarmupEvent) WarmupResponse {
	warmed := 1
	if warmup.Concurrency > 0 {
		if err := w.selfInvoke(ctx, warmup.Concurrency); err != nil {
			slog.WarnContext(ctx, "lambda_warmup_self_invoke_failed", "concurrency", warmup.Concurrency, "error", err)
		} else {
			warmed += warmup.Concurrency
		}
	}

	time.Sleep(w.delay)
	return WarmupResponse{Status: "warm", InstancesWarmed: warmed}
}

// selfInvoke fires count async invocations. Children get concurrency 0 so they never fan out again.
func (w *Warmer) selfInvoke(ctx context.Context, count int) error {
	client, err := w.newInvoker(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		invokeErr error
	)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				mu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return invokeErr
}
