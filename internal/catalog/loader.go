package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"campusportal/internal/model"

	"github.com/rs/zerolog"
)

// Data is the bulk payload a Source returns.
type Data struct {
	Courses  []model.Course  `json:"courses"`
	Sections []model.Section `json:"sections"`
}

// Source fetches the whole course dataset in one call.
type Source interface {
	FetchCourseData(ctx context.Context) (Data, error)
}

// Load fetches from src and builds a catalog. Any failure is logged and
// yields an empty catalog.
func Load(ctx context.Context, src Source, logger zerolog.Logger) *Catalog {
	if src == nil {
		logger.Warn().Msg("No catalog source configured, serving an empty catalog")
		return Empty()
	}
	data, err := src.FetchCourseData(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load course data, serving an empty catalog")
		return Empty()
	}
	c := New(data.Courses, data.Sections)
	logger.Info().Int("courses", len(data.Courses)).Int("sections", c.Len()).Msg("Catalog loaded")
	return c
}

// JSONSource reads the dataset from an http(s) URL or a local file path.
type JSONSource struct {
	location string
	client   *http.Client
}

// NewJSONSource creates a source for location. Plain paths and file:// URLs
// are read from disk.
func NewJSONSource(location string, timeout time.Duration) *JSONSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JSONSource{
		location: location,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *JSONSource) FetchCourseData(ctx context.Context) (Data, error) {
	if strings.TrimSpace(s.location) == "" {
		return Data{}, fmt.Errorf("catalog location is empty")
	}
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		return s.fetchHTTP(ctx)
	}
	path := strings.TrimPrefix(s.location, "file://")
	f, err := os.Open(path)
	if err != nil {
		return Data{}, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()
	return decodeData(f)
}

func (s *JSONSource) fetchHTTP(ctx context.Context) (Data, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return Data{}, fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return Data{}, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Data{}, fmt.Errorf("fetching catalog: status %d: %s", resp.StatusCode, string(body))
	}
	return decodeData(resp.Body)
}

func decodeData(r io.Reader) (Data, error) {
	var data Data
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return Data{}, fmt.Errorf("decoding catalog: %w", err)
	}
	return data, nil
}
