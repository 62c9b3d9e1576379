package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/repository"
)

// ErrSummaryNotFound indicates an unknown computation summary id.
var ErrSummaryNotFound = errors.New("computation summary not found")

// SummaryQueryService serves persisted computation summaries and the
// master-sheet exports derived from them.
type SummaryQueryService interface {
	GetSummary(ctx context.Context, id uint) (dto.ComputationSummaryResponse, error)
	GetMasterSheet(ctx context.Context, id uint) (dto.MasterSheetResponse, error)
}

type summaryQueryService struct {
	summaries repository.SummaryRepository
	cache     *redis.Client
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewSummaryQueryService constructs the query service.
func NewSummaryQueryService(summaries repository.SummaryRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) SummaryQueryService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &summaryQueryService{
		summaries: summaries,
		cache:     cache,
		ttl:       ttl,
		logger:    logger.With().Str("component", "summary_query_service").Logger(),
	}
}

func (s *summaryQueryService) GetSummary(ctx context.Context, id uint) (dto.ComputationSummaryResponse, error) {
	cacheKey := fmt.Sprintf("summaries:v1:%d", id)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.ComputationSummaryResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	summary, err := s.summaries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ComputationSummaryResponse{}, ErrSummaryNotFound
		}
		return dto.ComputationSummaryResponse{}, err
	}

	response, err := dto.NewComputationSummaryResponse(summary)
	if err != nil {
		return dto.ComputationSummaryResponse{}, fmt.Errorf("decode summary %d: %w", id, err)
	}

	// Only finished runs are safe to cache; in-flight documents change
	// under the reader.
	if s.cache != nil && summary.IsFinalized() {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("summary_id", id).Msg("failed to cache summary")
			}
		}
	}

	return response, nil
}

func (s *summaryQueryService) GetMasterSheet(ctx context.Context, id uint) (dto.MasterSheetResponse, error) {
	cacheKey := fmt.Sprintf("mastersheets:v1:%d", id)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.MasterSheetResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	summary, err := s.summaries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MasterSheetResponse{}, ErrSummaryNotFound
		}
		return dto.MasterSheetResponse{}, err
	}

	var levels []dto.LevelAggregate
	if len(summary.LevelData) > 0 {
		if err := json.Unmarshal(summary.LevelData, &levels); err != nil {
			return dto.MasterSheetResponse{}, fmt.Errorf("decode level partitions for summary %d: %w", id, err)
		}
	}

	response := BuildMasterSheet(summary.DepartmentID, summary.TermID, levels)

	if s.cache != nil && summary.IsFinalized() {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("summary_id", id).Msg("failed to cache master sheet")
			}
		}
	}

	return response, nil
}
