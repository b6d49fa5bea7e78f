package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
)

// Lambda predefined runtime environment variables
// ref: https://docs.aws.amazon.com/lambda/latest/dg/configuration-envvars.html#configuration-envvars-runtime
var (
	lambdaRegion  = os.Getenv("AWS_REGION")
	lambdaName    = os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	lambdaVersion = os.Getenv("AWS_LAMBDA_FUNCTION_VERSION")
)

// lambdaHandler decodes an exportRequest from the API Gateway event body and
// answers with the export summary. The body carries tokens, so it is never
// logged.
func lambdaHandler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := slog.Default().With("request_id", request.RequestContext.RequestID)
	req := &exportRequest{}
	if err := json.Unmarshal([]byte(request.Body), req); err != nil {
		logger.Error("failed to decode export request", "error", err.Error(), "body_bytes", len(request.Body))
		return errorResponse(http.StatusBadRequest, err), err
	}
	logger = logger.With("guild_id", req.GuildID, "send_via", req.SendVia)
	logger.Info("export requested", "channel_id", req.ChannelID, "s3_bucket", req.S3Bucket)

	response, err := handler(ctx, req)
	if err != nil {
		logger.Error("export failed", "error", err.Error(), "response", response)
		return errorResponse(http.StatusInternalServerError, err), err
	}

	return events.APIGatewayProxyResponse{
		Body:       response,
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

func errorResponse(status int, err error) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		Body:       err.Error(),
		StatusCode: status,
	}
}
