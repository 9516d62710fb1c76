package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	"worldgraph-backend/pkg/errors"
)

// SummaryFetcher is the slice of Client the service needs; tests substitute
// a stub.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, title string) (*Summary, error)
}

// Service resolves entity details, backfilling descriptive fields from the
// summary service on first access and caching them onto the entity record.
type Service struct {
	repo    repository.Repository
	fetcher SummaryFetcher
	logger  *zap.Logger
}

// NewService creates an enrichment service. fetcher may be nil, in which
// case details are served from the store as-is.
func NewService(repo repository.Repository, fetcher SummaryFetcher, logger *zap.Logger) *Service {
	return &Service{repo: repo, fetcher: fetcher, logger: logger}
}

// EntityDetails returns the merged descriptive view of a person or event.
// A missing id is a NotFound error: detail lookups are strict, unlike
// neighborhood queries. When the entity has no summary yet, the external
// service is consulted and any result is persisted back onto the record;
// enrichment failures degrade to the stored fields rather than failing the
// lookup.
func (s *Service) EntityDetails(ctx context.Context, id string) (*domain.EntityDetails, error) {
	details, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if details.Summary != "" || s.fetcher == nil {
		return details, nil
	}

	searchTitle := details.WikipediaTitle
	if searchTitle == "" {
		searchTitle = details.Name
	}
	summary, err := s.fetcher.FetchSummary(ctx, searchTitle)
	if err != nil {
		s.logger.Warn("enrichment fetch failed",
			zap.String("entityID", id),
			zap.String("title", searchTitle),
			zap.Error(err),
		)
		return details, nil
	}
	if summary == nil {
		return details, nil
	}

	now := time.Now().UTC()
	update := domain.Enrichment{
		ShortDescription: summary.Description,
		Summary:          summary.Extract,
		WikipediaTitle:   summary.Title,
		WikipediaURL:     summary.PageURL(),
		ThumbnailURL:     summary.ThumbnailURL(),
		SummaryUpdatedAt: &now,
	}
	if err := s.repo.UpdateEnrichment(ctx, id, details.Kind, update); err != nil {
		s.logger.Warn("enrichment cache-back failed",
			zap.String("entityID", id),
			zap.Error(err),
		)
	}

	merged := *details
	if update.ShortDescription != "" {
		merged.ShortDescription = update.ShortDescription
	}
	if update.Summary != "" {
		merged.Summary = update.Summary
	}
	if update.WikipediaTitle != "" {
		merged.WikipediaTitle = update.WikipediaTitle
	}
	if update.WikipediaURL != "" {
		merged.WikipediaURL = update.WikipediaURL
	}
	if update.ThumbnailURL != "" {
		merged.ThumbnailURL = update.ThumbnailURL
	}
	merged.SummaryUpdatedAt = &now
	return &merged, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*domain.EntityDetails, error) {
	if p, err := s.repo.FindPerson(ctx, id); err == nil {
		return &domain.EntityDetails{
			ID:         p.ID,
			Kind:       domain.KindPerson,
			Name:       p.Name,
			WikidataID: p.WikidataID,
			Enrichment: p.Enrichment,
		}, nil
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	e, err := s.repo.FindEvent(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("entity")
		}
		return nil, err
	}
	return &domain.EntityDetails{
		ID:         e.ID,
		Kind:       domain.KindEvent,
		Name:       e.Name,
		WikidataID: e.WikidataID,
		Enrichment: e.Enrichment,
	}, nil
}
