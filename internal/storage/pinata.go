package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/spec-kit/deliverynote-service/internal/config"
)

// PinataClient pins files to IPFS through the Pinata pinFileToIPFS endpoint.
type PinataClient struct {
	endpoint string
	gateway  string
	jwt      string
	http     *http.Client
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// NewPinataClient builds a client from the asset configuration.
func NewPinataClient(cfg config.AssetsConfig, httpClient *http.Client) *PinataClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	gateway := cfg.GatewayURL
	if gateway != "" && !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &PinataClient{
		endpoint: cfg.PinataEndpoint,
		gateway:  gateway,
		jwt:      cfg.PinataJWT,
		http:     httpClient,
	}
}

// Upload sends data as a multipart file and returns gateway + content id.
func (p *PinataClient) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAsset
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	metadata, _ := json.Marshal(map[string]string{"name": filename})
	if err := writer.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+p.jwt)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pinata returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode pinata response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata response missing IpfsHash")
	}
	return p.gateway + out.IpfsHash, nil
}
