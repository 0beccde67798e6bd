// Package storage forwards uploaded assets (logos, signatures) to an external
// pinning or object store and returns the public URL of the stored asset.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/deliverynote-service/internal/config"
)

// ErrEmptyAsset is returned when an upload carries no bytes.
var ErrEmptyAsset = errors.New("empty asset")

// Uploader stores an asset and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// NewUploader builds the uploader selected by cfg.Backend.
func NewUploader(ctx context.Context, cfg config.AssetsConfig) (Uploader, error) {
	switch cfg.Backend {
	case config.AssetBackendS3:
		return NewS3Uploader(ctx, cfg)
	case config.AssetBackendPinata, "":
		return NewPinataClient(cfg, &http.Client{Timeout: 30 * time.Second}), nil
	default:
		return nil, fmt.Errorf("unknown asset backend %q", cfg.Backend)
	}
}
