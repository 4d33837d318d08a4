package scores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whid-api/internal/domain"
	"whid-api/internal/infra/metrics"
	"whid-api/internal/usecase/epochs"
)

// ingestOnceTTL bounds how long an Idempotency-Key blocks a replay.
const ingestOnceTTL = time.Hour

// EpochResolver maps epoch tokens to stored epochs.
type EpochResolver interface {
	Resolve(ctx context.Context, token string) (domain.Epoch, error)
}

// Entry is one row of a score ingestion batch.
type Entry struct {
	Epoch    int
	MemberID string
	Score    int
}

// Service implements the scoring ledger.
type Service struct {
	scores       domain.ScoreRepo
	epochs       EpochResolver
	clock        domain.Clock
	cache        domain.Cache
	defaultScore int
	log          zerolog.Logger
}

// NewService creates the score service. cache may be nil; it only backs
// the optional ingestion idempotency guard.
func NewService(scores domain.ScoreRepo, epochs EpochResolver, clock domain.Clock, cache domain.Cache, defaultScore int, log zerolog.Logger) *Service {
	return &Service{scores: scores, epochs: epochs, clock: clock, cache: cache, defaultScore: defaultScore, log: log}
}

// Record bulk-inserts a scoring batch. The batch is all-or-nothing:
// a duplicate (epoch, member) pair rolls the whole transaction back
// and surfaces as a conflict. When idempotencyKey is set and Redis is
// configured, a replayed batch is acknowledged without re-inserting.
func (s *Service) Record(ctx context.Context, entries []Entry, idempotencyKey string) (uuid.UUID, error) {
	batchID := uuid.New()
	now := s.clock.Now()
	rows := make([]domain.Score, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, domain.Score{
			Epoch:         e.Epoch,
			MemberID:      e.MemberID,
			Score:         e.Score,
			DateProcessed: now,
		})
	}

	insert := func() error { return s.scores.InsertScores(ctx, rows) }

	var err error
	if s.cache != nil && idempotencyKey != "" {
		err = s.cache.Once(ctx, "scores:ingest:"+idempotencyKey, ingestOnceTTL, insert)
	} else {
		err = insert()
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert scores: %w", err)
	}

	metrics.ScoreBatchesTotal.Inc()
	metrics.ScoresIngestedTotal.Add(float64(len(rows)))
	s.log.Info().Str("batch_id", batchID.String()).Int("rows", len(rows)).Msg("scores: batch processed")
	return batchID, nil
}

// Get returns the score of one member at the resolved epoch.
func (s *Service) Get(ctx context.Context, memberID, epochToken string) (domain.Score, error) {
	epoch, err := s.epochs.Resolve(ctx, epochToken)
	if err != nil {
		return domain.Score{}, err
	}
	return s.scores.GetScore(ctx, epoch.ID, memberID)
}

// List returns every score of the resolved epoch. An epoch with zero
// rows is reported as not found, matching the API contract.
func (s *Service) List(ctx context.Context, epochToken string) ([]domain.Score, error) {
	epoch, err := s.epochs.Resolve(ctx, epochToken)
	if err != nil {
		return nil, err
	}
	rows, err := s.scores.ListScores(ctx, epoch.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows, nil
}

// EnsureDefault gives a newly registered member a starting score at the
// current epoch. The (epoch, member) primary key is the race-breaker: a
// conflicting concurrent insert means the member is already covered.
func (s *Service) EnsureDefault(ctx context.Context, memberID string) error {
	has, err := s.scores.HasScores(ctx, memberID)
	if err != nil {
		return fmt.Errorf("check existing scores: %w", err)
	}
	if has {
		return nil
	}
	epoch, err := s.epochs.Resolve(ctx, epochs.TokenCurrent)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Str("member_id", memberID).Msg("scores: no current epoch, default score skipped")
			return nil
		}
		return err
	}
	err = s.scores.InsertScores(ctx, []domain.Score{{
		Epoch:         epoch.ID,
		MemberID:      memberID,
		Score:         s.defaultScore,
		DateProcessed: s.clock.Now(),
	}})
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert default score: %w", err)
	}
	return nil
}
