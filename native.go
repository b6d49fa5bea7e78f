package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Native is the privileged host capability: direct filesystem writes and
// unrestricted asset fetches. Hosts without a writable filesystem pass nil,
// which forces archive mode.
type Native interface {
	SaveFile(ctx context.Context, baseDir, relPath string, payload []byte) error
	// FetchAsset returns nil bytes (and no error) for a non-2xx response.
	FetchAsset(ctx context.Context, url string) ([]byte, error)
}

type LocalNative struct {
	client *resty.Client
}

var _ Native = (*LocalNative)(nil)

func NewLocalNative(client *resty.Client) *LocalNative {
	if client == nil {
		client = resty.New()
	}
	return &LocalNative{client: client}
}

func (n *LocalNative) SaveFile(ctx context.Context, baseDir, relPath string, payload []byte) error {
	fullPath := filepath.Join(baseDir, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(baseDir, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes %s", relPath, baseDir)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, payload, 0644)
}

func (n *LocalNative) FetchAsset(ctx context.Context, url string) ([]byte, error) {
	resp, err := n.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, nil
	}
	return resp.Body(), nil
}
