package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/lmittmann/tint"
)

func main() {
	if lambdaName != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("function", lambdaName, "version", lambdaVersion))
		slog.Info("Start on lambda runtime", "region", lambdaRegion)
		lambda.Start(lambdaHandler)
		return
	}

	// Local runs replay a request file, given as the first argument or
	// through GE_LAMBDA_REQUEST_JSON_PATH.
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen})))
	path := os.Getenv("GE_LAMBDA_REQUEST_JSON_PATH")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	slog.Info("Start on local", "request", path)

	req, err := readLocalRequest(path)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	res, err := lambdaHandler(context.Background(), req)
	if err != nil {
		slog.Error(err.Error(), "status", res.StatusCode)
		os.Exit(1)
	}
	slog.Info("ok", "status", res.StatusCode, "body", res.Body)
}

// readLocalRequest accepts either a full API Gateway event or a bare export
// request, which is wrapped as the event body.
func readLocalRequest(path string) (events.APIGatewayProxyRequest, error) {
	req := events.APIGatewayProxyRequest{}
	if path == "" {
		return req, fmt.Errorf("no request file given")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if req.Body == "" {
		req.Body = string(b)
	}
	return req, nil
}
