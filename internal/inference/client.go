// Package inference submits uploads to the remote anomaly-detection service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"trustcast/internal/models"
)

// FileField is the multipart field carrying the uploaded file.
const FileField = "file"

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// Predictor runs detection over one uploaded file.
type Predictor interface {
	Predict(ctx context.Context, file *models.UploadedFile) (*models.InferenceResult, error)
}

// Client posts files to the /predict endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// wireResult mirrors the response body; pointers detect missing fields.
type wireResult struct {
	NumSequences  *int       `json:"num_sequences"`
	Predictions   *[]int     `json:"predictions"`
	Probabilities *[]float64 `json:"probabilities"`
}

func (c *Client) Predict(ctx context.Context, file *models.UploadedFile) (*models.InferenceResult, error) {
	if file == nil {
		return nil, ErrNoFileSelected
	}

	body, contentType, err := multipartBody(file)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &BadResponseError{
			Status: resp.StatusCode,
			Err:    errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	return decodeResult(resp.Body)
}

func multipartBody(file *models.UploadedFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(FileField, file.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func decodeResult(r io.Reader) (*models.InferenceResult, error) {
	var wire wireResult
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, &BadResponseError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	switch {
	case wire.NumSequences == nil:
		return nil, &BadResponseError{Err: errors.New("missing num_sequences")}
	case wire.Predictions == nil:
		return nil, &BadResponseError{Err: errors.New("missing predictions")}
	case wire.Probabilities == nil:
		return nil, &BadResponseError{Err: errors.New("missing probabilities")}
	}

	result := &models.InferenceResult{
		NumSequences:  *wire.NumSequences,
		Predictions:   *wire.Predictions,
		Probabilities: *wire.Probabilities,
	}
	if err := result.Validate(); err != nil {
		return nil, &BadResponseError{Err: err}
	}

	return result, nil
}
