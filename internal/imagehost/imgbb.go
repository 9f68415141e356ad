package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const uploadURL = "https://api.imgbb.com/1/upload"

var ErrNoImage = errors.New("an image file is required")

// Uploader turns an uploaded file into a hosted URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type ImgBB struct {
	apiKey string
	hc     *http.Client
}

func NewImgBB(apiKey string, hc *http.Client) *ImgBB {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &ImgBB{apiKey: apiKey, hc: hc}
}

func (u *ImgBB) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if r == nil {
		return "", ErrNoImage
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(part, r)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if n == 0 {
		return "", ErrNoImage
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL+"?key="+url.QueryEscape(u.apiKey), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			DisplayURL string `json:"display_url"`
			URL        string `json:"url"`
		} `json:"data"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("image upload: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return "", fmt.Errorf("image upload failed (%d): %s", resp.StatusCode, out.Error.Message)
	}

	if out.Data.DisplayURL != "" {
		return out.Data.DisplayURL, nil
	}
	return out.Data.URL, nil
}
