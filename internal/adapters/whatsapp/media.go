package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wa-nutrition-bot/internal/domain"
	"wa-nutrition-bot/internal/infra/metrics"
)

const maxMediaBytes = 10 << 20

var _ domain.MediaFetcher = (*Sender)(nil)

// DownloadMedia fetches provider-hosted media by its opaque ID. The v1 media
// endpoint serves the bytes directly; tenants on the Cloud-API shape return a
// JSON descriptor with a short-lived URL instead, so that is followed as a
// second step.
func (s *Sender) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	data, mime, err := s.fetch(ctx, s.baseURL+"/v1/media/"+mediaID, "media_v1")
	if err == nil && !isJSONDescriptor(mime) {
		return data, mime, nil
	}

	data, mime, err = s.fetch(ctx, s.baseURL+"/"+mediaID, "media_lookup")
	if err != nil {
		return nil, "", err
	}
	if !isJSONDescriptor(mime) {
		return data, mime, nil
	}
	var descriptor struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, "", fmt.Errorf("whatsapp: decode media descriptor: %w", err)
	}
	if descriptor.URL == "" {
		return nil, "", fmt.Errorf("whatsapp: media descriptor without url")
	}
	data, mime, err = s.fetch(ctx, descriptor.URL, "media_fetch")
	if err != nil {
		return nil, "", err
	}
	if descriptor.MimeType != "" {
		mime = descriptor.MimeType
	}
	return data, mime, nil
}

func (s *Sender) fetch(ctx context.Context, url, operation string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: build media request: %w", err)
	}
	req.Header.Set(apiKeyHeader, s.apiKey)

	start := time.Now()
	resp, err := s.http.Do(req)
	metrics.ObserveNetworkRequest("whatsapp", operation, "media", start, err)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("whatsapp: fetch media: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: read media: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func isJSONDescriptor(mime string) bool {
	return mime == "application/json" || mime == "application/json; charset=utf-8"
}
