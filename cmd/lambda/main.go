// Command lambda serves docvault behind an AWS Lambda Function URL.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	lambdaadapter "github.com/kirillkom/docvault/internal/adapters/lambda"
	"github.com/kirillkom/docvault/internal/bootstrap"
	"github.com/kirillkom/docvault/internal/config"
	"github.com/kirillkom/docvault/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("docvault-lambda", cfg.LogLevel))

	app, err := bootstrap.New(context.Background(), cfg, "lambda")
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	fn := lambdaadapter.NewFunctionURL(app.Handler())
	warmer := lambdaadapter.NewWarmer(os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))

	lambda.Start(func(ctx context.Context, event json.RawMessage) (any, error) {
		return lambdaadapter.Dispatch(ctx, event, fn, warmer)
	})
}
