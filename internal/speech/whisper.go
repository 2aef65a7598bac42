package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// WhisperRecognizer posts audio to a Whisper-style /transcribe endpoint.
type WhisperRecognizer struct {
	url        string
	httpClient *http.Client
}

// NewWhisperRecognizer creates a recognizer for url. A non-positive timeout
// means 60 seconds.
func NewWhisperRecognizer(url string, timeoutSeconds int) *WhisperRecognizer {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return &WhisperRecognizer{
		url: url,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (w *WhisperRecognizer) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription API error: %s - %s", resp.Status, string(respBody))
	}

	var result transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	return result.Text, nil
}
