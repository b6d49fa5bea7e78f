package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const DefaultAPIBaseURL = "https://discord.com/api/v10"

// APIClient performs GET requests against the guild API. Non-2xx responses
// are returned with OK == false; err is reserved for transport failures.
type APIClient interface {
	Get(ctx context.Context, path string, query url.Values) (*APIResponse, error)
}

type APIResponse struct {
	OK     bool
	Status int
	Body   []byte
}

func (r *APIResponse) describe() string {
	if msg := gjson.GetBytes(r.Body, "message"); msg.Exists() {
		return fmt.Sprintf("%d - %s", r.Status, msg.String())
	}
	return fmt.Sprintf("%d - %s", r.Status, strings.TrimSpace(string(r.Body)))
}

// RestClient is an APIClient on top of a shared resty client.
type RestClient struct {
	innerClient *resty.Client
	logger      *slog.Logger
}

var _ APIClient = (*RestClient)(nil)

// NewRestClient returns a client for baseURL. token is sent verbatim in the
// Authorization header, so bot tokens need their "Bot " prefix.
func NewRestClient(logger *slog.Logger, baseURL, token string) *RestClient {
	inner := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60*time.Second).
		SetHeader("User-Agent", "guild-export (https://github.com/ToshihitoKon/guild-export, 1.0)")
	if token != "" {
		inner.SetHeader("Authorization", token)
	}
	return &RestClient{
		innerClient: inner,
		logger:      logger,
	}
}

func (c *RestClient) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	req := c.innerClient.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	c.logger.Debug("HTTP GET", "path", path, "query", query.Encode())
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return &APIResponse{
		OK:     resp.IsSuccess(),
		Status: resp.StatusCode(),
		Body:   resp.Body(),
	}, nil
}
