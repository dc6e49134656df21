package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"campusportal/internal/catalog"
	"campusportal/internal/repository"

	"github.com/rs/zerolog"
)

// CatalogService serves searches over the current in-memory catalog.
type CatalogService interface {
	// Reload fetches the dataset again. Failures leave an empty catalog in place.
	Reload(ctx context.Context) int
	// Import replaces the stored dataset and reloads it.
	Import(ctx context.Context, data catalog.Data) error
	Current() *catalog.Catalog
	Search(f catalog.Filter, page int) catalog.Result
	Campuses() []string
}

type catalogService struct {
	source  catalog.Source
	repo    repository.CatalogRepository
	current atomic.Pointer[catalog.Catalog]
	logger  zerolog.Logger
}

// NewCatalogService starts with an empty catalog until Reload runs. repo may
// be nil when the catalog comes from a read-only source.
func NewCatalogService(source catalog.Source, repo repository.CatalogRepository, logger zerolog.Logger) CatalogService {
	s := &catalogService{
		source: source,
		repo:   repo,
		logger: logger.With().Str("service", "CatalogService").Logger(),
	}
	s.current.Store(catalog.Empty())
	return s
}

func (s *catalogService) Reload(ctx context.Context) int {
	c := catalog.Load(ctx, s.source, s.logger)
	s.current.Store(c)
	return c.Len()
}

func (s *catalogService) Import(ctx context.Context, data catalog.Data) error {
	if s.repo == nil {
		return fmt.Errorf("catalog import needs the postgres source: %w", ErrInvalidInput)
	}
	courseIDs := make(map[string]struct{}, len(data.Courses))
	for _, c := range data.Courses {
		if c.ID == "" {
			return fmt.Errorf("course without id: %w", ErrInvalidInput)
		}
		if _, dup := courseIDs[c.ID]; dup {
			return fmt.Errorf("duplicate course id %s: %w", c.ID, ErrInvalidInput)
		}
		courseIDs[c.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(data.Sections))
	for _, sec := range data.Sections {
		if sec.NRC == "" {
			return fmt.Errorf("section without nrc: %w", ErrInvalidInput)
		}
		if _, dup := seen[sec.NRC]; dup {
			return fmt.Errorf("duplicate nrc %s: %w", sec.NRC, ErrInvalidInput)
		}
		seen[sec.NRC] = struct{}{}
	}
	if err := s.repo.ReplaceCatalog(ctx, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to import catalog")
		return err
	}
	n := s.Reload(ctx)
	s.logger.Info().Int("courses", len(data.Courses)).Int("sections", n).Msg("Catalog imported")
	return nil
}

func (s *catalogService) Current() *catalog.Catalog {
	return s.current.Load()
}

func (s *catalogService) Search(f catalog.Filter, page int) catalog.Result {
	return s.current.Load().Search(f, page)
}

func (s *catalogService) Campuses() []string {
	return append([]string(nil), catalog.Campuses...)
}
