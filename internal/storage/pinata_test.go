package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/deliverynote-service/internal/config"
)

func TestPinataUploadReturnsGatewayURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "signature.png", header.Filename)
		assert.Equal(t, "png-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IpfsHash":"QmHash","PinSize":9}`))
	}))
	defer server.Close()

	client := NewPinataClient(config.AssetsConfig{
		PinataEndpoint: server.URL,
		PinataJWT:      "secret",
		GatewayURL:     "https://gateway.example/ipfs",
	}, server.Client())

	url, err := client.Upload(context.Background(), []byte("png-bytes"), "signature.png")
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/ipfs/QmHash", url)
}

func TestPinataUploadFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewPinataClient(config.AssetsConfig{PinataEndpoint: server.URL}, server.Client())

	_, err := client.Upload(context.Background(), []byte("x"), "logo.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")

	_, err = client.Upload(context.Background(), nil, "logo.png")
	assert.ErrorIs(t, err, ErrEmptyAsset)
}
