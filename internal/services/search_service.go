package services

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"clipseek/internal/models"
	"clipseek/internal/store"
)

// TextSearchParams describes a text query from a caller's point of view.
type TextSearchParams struct {
	Query     string
	Limit     int
	Threshold models.ConfidenceTier
}

// ImageSearchParams describes an image query.
type ImageSearchParams struct {
	Image     io.Reader
	ImageName string
	Limit     int
	Threshold models.ConfidenceTier
}

// SearchService answers queries by delegating ranking entirely to the
// provider and joining the matches back against the local registry for
// filenames and paths. Nothing is persisted per search.
type SearchService struct {
	provider     VideoIndexProvider
	registry     store.VideoRegistry
	costStore    store.CostTrackingStore
	defaultLimit int
	threshold    models.ConfidenceTier
}

func NewSearchService(provider VideoIndexProvider, registry store.VideoRegistry, costStore store.CostTrackingStore, defaultLimit int, threshold models.ConfidenceTier) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	if threshold == "" || threshold == models.ConfidenceNone {
		threshold = models.ConfidenceMedium
	}
	return &SearchService{
		provider:     provider,
		registry:     registry,
		costStore:    costStore,
		defaultLimit: defaultLimit,
		threshold:    threshold,
	}
}

// SearchText runs a text query against the working index.
func (s *SearchService) SearchText(ctx context.Context, params TextSearchParams) ([]models.SearchMatch, error) {
	if params.Query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", models.ErrInvalidInput)
	}
	indexID, err := s.indexID(ctx)
	if err != nil {
		return nil, err
	}

	limit, threshold := s.effective(params.Limit, params.Threshold)
	matches, err := s.provider.SearchText(ctx, ProviderSearchParams{
		IndexID:   indexID,
		Query:     params.Query,
		Options:   []string{"visual", "audio"},
		Threshold: threshold,
		PageLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("provider text search: %w", err)
	}

	s.recordQueryCost(ctx)
	return s.enrich(ctx, matches, limit), nil
}

// SearchImage runs an image query against the working index. Image queries
// only use the visual modality; audio has nothing to match against.
func (s *SearchService) SearchImage(ctx context.Context, params ImageSearchParams) ([]models.SearchMatch, error) {
	if params.Image == nil {
		return nil, fmt.Errorf("%w: image reader must not be nil", models.ErrInvalidInput)
	}
	indexID, err := s.indexID(ctx)
	if err != nil {
		return nil, err
	}

	limit, threshold := s.effective(params.Limit, params.Threshold)
	matches, err := s.provider.SearchImage(ctx, ProviderImageSearchParams{
		IndexID:   indexID,
		Image:     params.Image,
		ImageName: params.ImageName,
		Options:   []string{"visual"},
		Threshold: threshold,
		PageLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("provider image search: %w", err)
	}

	s.recordQueryCost(ctx)
	return s.enrich(ctx, matches, limit), nil
}

func (s *SearchService) indexID(ctx context.Context) (string, error) {
	indexID, err := s.registry.IndexID(ctx)
	if err != nil {
		return "", fmt.Errorf("read index id: %w", err)
	}
	if indexID == "" {
		return "", models.ErrNoIndex
	}
	return indexID, nil
}

func (s *SearchService) effective(limit int, threshold models.ConfidenceTier) (int, models.ConfidenceTier) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if threshold == "" || threshold == models.ConfidenceNone {
		threshold = s.threshold
	}
	return limit, threshold
}

// enrich joins provider matches against the registry and enforces the
// interval invariant: start <= end, both clamped inside the video's known
// duration.
func (s *SearchService) enrich(ctx context.Context, matches []models.SearchMatch, limit int) []models.SearchMatch {
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]models.SearchMatch, 0, len(matches))
	for _, m := range matches {
		if m.End < m.Start {
			m.Start, m.End = m.End, m.Start
		}
		if m.Start < 0 {
			m.Start = 0
		}

		entry, err := s.registry.FindByVideoID(ctx, m.VideoID)
		if err == nil {
			m.Filename = entry.Filename
			m.Filepath = entry.Filepath
			if entry.DurationSec > 0 && m.End > entry.DurationSec {
				m.End = entry.DurationSec
				if m.Start > m.End {
					m.Start = m.End
				}
			}
		} else {
			// The provider can return videos ingested outside this tool;
			// keep the match but flag the missing local file.
			m.Filename = "unknown"
			m.Filepath = "unknown"
			log.WithField("video_id", m.VideoID).Debug("search match has no registry entry")
		}
		out = append(out, m)
	}
	return out
}

func (s *SearchService) recordQueryCost(ctx context.Context) {
	if s.costStore == nil {
		return
	}
	if _, err := s.costStore.RecordSearchQueries(ctx, 1); err != nil {
		log.WithError(err).Warn("failed to record search query cost")
	}
}
