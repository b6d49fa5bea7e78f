package export

import (
	"context"

	"github.com/go-resty/resty/v2"
)

// Downloader fetches binary assets and persists them through the session's
// sink. Failures are logged, never returned.
type Downloader struct {
	native Native
	client *resty.Client
}

func NewDownloader(native Native, client *resty.Client) *Downloader {
	if client == nil {
		client = resty.New()
	}
	return &Downloader{
		native: native,
		client: client,
	}
}

func (d *Downloader) Download(ctx context.Context, url, path string, ec *ExportContext) {
	logger := ec.Logger

	var data []byte
	if d.native != nil {
		b, err := d.native.FetchAsset(ctx, url)
		if err != nil {
			logger.Error("Error downloading asset", "url", url, "error", err.Error())
			return
		}
		data = b
	} else {
		resp, err := d.client.R().SetContext(ctx).Get(url)
		if err != nil {
			logger.Error("Error downloading asset", "url", url, "error", err.Error())
			return
		}
		if !resp.IsSuccess() {
			logger.Error("Failed to download asset", "url", url, "status", resp.StatusCode())
			return
		}
		data = resp.Body()
	}

	if len(data) == 0 {
		logger.Error("Failed to fetch asset (empty data)", "url", url)
		return
	}

	logger.Info("Saving asset", "path", path, "bytes", len(data))
	if err := ec.Persist(ctx, path, data); err != nil {
		logger.Error("Failed to save asset", "path", path, "error", err.Error())
	}
}
