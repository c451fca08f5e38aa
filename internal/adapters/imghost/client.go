// Package imghost uploads images to an imgbb-compatible hosting API and
// returns their public URLs. Auction images are hosted externally; the
// service only stores URLs.
package imghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"subastas-service/internal/config"
	"subastas-service/internal/domain/shared"

	"github.com/rs/zerolog"
)

type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     zerolog.Logger
}

type ClientParams struct {
	Config *config.Config
	Logger zerolog.Logger
}

func NewClient(params ClientParams) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   params.Config.ImageHost.Endpoint,
		apiKey:     params.Config.ImageHost.APIKey,
		logger:     params.Logger.With().Str("component", "image_host").Logger(),
	}
}

// uploadResponse is the subset of the provider response we care about
type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends one image as multipart form data and returns its public URL.
// Provider error text is surfaced so operators see why an upload failed.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("key", c.apiKey); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("filename", filename).Msg("Image upload request failed")
		return "", fmt.Errorf("%w: %v", shared.ErrRemote, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading upload response: %v", shared.ErrRemote, err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.logger.Error().Err(err).Int("status", resp.StatusCode).Msg("Unparseable image host response")
		return "", fmt.Errorf("%w: unexpected response from image host (status %d)", shared.ErrRemote, resp.StatusCode)
	}

	if !parsed.Success || resp.StatusCode != http.StatusOK {
		msg := parsed.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		c.logger.Error().Str("filename", filename).Str("provider_error", msg).Msg("Image host rejected upload")
		return "", fmt.Errorf("%w: %s", shared.ErrUploadFailed, msg)
	}

	c.logger.Info().Str("filename", filename).Str("url", parsed.Data.URL).Msg("Image uploaded")
	return parsed.Data.URL, nil
}
