package voice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whid-api/internal/domain"
	"whid-api/internal/infra/metrics"
	"whid-api/internal/usecase/refcheck"
)

// ErrNoFilter rejects a list query without a time bound.
var ErrNoFilter = errors.New("an epoch or since filter is required")

// EpochResolver maps epoch tokens to stored epochs.
type EpochResolver interface {
	Resolve(ctx context.Context, token string) (domain.Epoch, error)
}

// ListQuery selects voice events by member plus an epoch window or an
// open-ended since bound.
type ListQuery struct {
	MemberID   string
	EpochToken string
	Since      *time.Time
}

// Service manages the voice activity log.
type Service struct {
	events domain.VoiceEventRepo
	refs   *refcheck.Checker
	epochs EpochResolver
}

// NewService creates the voice event service.
func NewService(events domain.VoiceEventRepo, refs *refcheck.Checker, epochs EpochResolver) *Service {
	return &Service{events: events, refs: refs, epochs: epochs}
}

// Add validates that the member and channel exist, then appends the
// event. Nothing is persisted when a reference is missing.
func (s *Service) Add(ctx context.Context, ev domain.VoiceEvent) (domain.VoiceEvent, error) {
	if err := s.refs.Check(ctx, []string{ev.MemberID}, []string{ev.ChannelID}); err != nil {
		var missing *domain.MissingReferencesError
		if errors.As(err, &missing) {
			metrics.MissingReferenceRejections.Inc()
		}
		return domain.VoiceEvent{}, err
	}
	stored, err := s.events.AddVoiceEvent(ctx, ev)
	if err != nil {
		return domain.VoiceEvent{}, fmt.Errorf("store voice event: %w", err)
	}
	return stored, nil
}

// List returns matching voice events. An empty result is reported as
// not found.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.VoiceEvent, error) {
	filter := domain.VoiceEventFilter{MemberID: q.MemberID}
	switch {
	case q.EpochToken != "":
		epoch, err := s.epochs.Resolve(ctx, q.EpochToken)
		if err != nil {
			return nil, err
		}
		filter.Window = &domain.Window{Start: epoch.Start, End: epoch.End}
	case q.Since != nil:
		filter.Since = q.Since
	default:
		return nil, ErrNoFilter
	}
	rows, err := s.events.ListVoiceEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows, nil
}
