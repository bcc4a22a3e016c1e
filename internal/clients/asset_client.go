package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
)

// AssetClient handles HTTP communication with the asset-service, which
// fronts the remote media store. Uploads return stable public URLs shaped
// .../upload/<version>/<folder>/<publicId>.<ext>.
type AssetClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAssetClient creates a new asset client
func NewAssetClient() *AssetClient {
	baseURL := os.Getenv("ASSET_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://asset-service.marketplace.svc.cluster.local:8085"
	}

	return &AssetClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // uploads move real bytes
		},
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL      string `json:"url"`
		PublicID string `json:"publicId"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Upload stores the file content under folder and returns its public URL
func (c *AssetClient) Upload(ctx context.Context, content io.Reader, filename, folder string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/assets/upload", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Internal-Service", "storefront-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if resp.StatusCode >= 400 || !parsed.Success {
		return "", fmt.Errorf("asset service rejected upload (status %d): %s", resp.StatusCode, parsed.Error)
	}
	return parsed.Data.URL, nil
}

// Destroy removes a previously uploaded asset by its public id
func (c *AssetClient) Destroy(ctx context.Context, publicID string) error {
	endpoint := c.baseURL + "/api/v1/assets/" + url.PathEscape(publicID)
	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Internal-Service", "storefront-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("asset service returned status %d", resp.StatusCode)
	}
	return nil
}

// Duplicate downloads an existing asset and re-uploads it under a fresh
// name in the same folder, so cloned products own their copies.
func (c *AssetClient) Duplicate(ctx context.Context, assetURL, folder string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", assetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("asset download returned status %d", resp.StatusCode)
	}

	ext := path.Ext(assetURL)
	filename := fmt.Sprintf("copy-%s%s", uuid.New().String()[:8], ext)
	return c.Upload(ctx, resp.Body, filename, folder)
}
