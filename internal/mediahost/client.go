package mediahost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrVideoNotFound = errors.New("mediahost: video not found")

// Client - клиент REST API видеохостинга.
// Загрузка проходит в два шага: создание видео с выделением
// upload-ссылки, затем PUT содержимого по этой ссылке.
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// Video - видео на стороне хостинга
type Video struct {
	URI         string `json:"uri"` // формат /videos/{id}
	Name        string `json:"name"`
	PlayerURL   string `json:"link"`
	Status      string `json:"status"`
	UploadLink  string `json:"-"`
	Description string `json:"description"`
}

type createVideoResponse struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Link        string `json:"link"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Upload      struct {
		UploadLink string `json:"upload_link"`
	} `json:"upload"`
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: strings.TrimSpace(accessToken),
		// Загрузка видео может идти долго
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Upload создает видео на хостинге и заливает содержимое.
// Возвращенный URI служит ключом для последующего удаления.
func (c *Client) Upload(ctx context.Context, name, description string, size int64, content io.Reader) (*Video, error) {
	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"upload": map[string]interface{}{
			"approach": "tus",
			"size":     size,
		},
	}

	var created createVideoResponse
	if err := c.doJSON(ctx, http.MethodPost, "/me/videos", body, &created); err != nil {
		return nil, err
	}
	if created.Upload.UploadLink == "" {
		return nil, errors.New("mediahost: no upload link in response")
	}

	if err := c.uploadContent(ctx, created.Upload.UploadLink, size, content); err != nil {
		// Заготовка без содержимого не нужна, подчищаем
		_ = c.Delete(context.WithoutCancel(ctx), created.URI)
		return nil, err
	}

	return &Video{
		URI:         created.URI,
		Name:        created.Name,
		PlayerURL:   created.Link,
		Status:      created.Status,
		Description: created.Description,
	}, nil
}

// Get возвращает видео по URI
func (c *Client) Get(ctx context.Context, uri string) (*Video, error) {
	var video Video
	if err := c.doJSON(ctx, http.MethodGet, uri, nil, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Delete удаляет видео с хостинга по URI
func (c *Client) Delete(ctx context.Context, uri string) error {
	return c.doJSON(ctx, http.MethodDelete, uri, nil, nil)
}

func (c *Client) uploadContent(ctx context.Context, uploadLink string, size int64, content io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, uploadLink, content)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Tus-Resumable", "1.0.0")
	req.Header.Set("Upload-Offset", "0")
	req.Header.Set("Content-Type", "application/offset+octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mediahost upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mediahost upload failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if c.accessToken == "" {
		return errors.New("mediahost: access token is not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mediahost request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrVideoNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return fmt.Errorf("mediahost request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("mediahost request failed: %s", apiErr.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
