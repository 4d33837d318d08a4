package messages

import (
	"context"
	"errors"
	"fmt"

	"whid-api/internal/domain"
	"whid-api/internal/infra/metrics"
	"whid-api/internal/usecase/refcheck"
)

// ErrNoFilter rejects a list query without any filter key.
var ErrNoFilter = errors.New("an epoch, member or channel filter is required")

// EpochResolver maps epoch tokens to stored epochs.
type EpochResolver interface {
	Resolve(ctx context.Context, token string) (domain.Epoch, error)
}

// ListQuery selects messages by epoch window and/or secondary key.
type ListQuery struct {
	EpochToken string
	Author     string
	ChannelID  string
}

// Service manages message records.
type Service struct {
	messages domain.MessageRepo
	refs     *refcheck.Checker
	epochs   EpochResolver
	clock    domain.Clock
}

// NewService creates the message service.
func NewService(messages domain.MessageRepo, refs *refcheck.Checker, epochs EpochResolver, clock domain.Clock) *Service {
	return &Service{messages: messages, refs: refs, epochs: epochs, clock: clock}
}

// Create validates that author, reply target, member mentions and the
// channel all exist, then stores the message with its mentions and
// attachments. Nothing is persisted when any reference is missing.
func (s *Service) Create(ctx context.Context, m domain.Message) (domain.Message, error) {
	memberIDs := []string{m.Author, m.ReplyingTo}
	for _, mention := range m.Mentions {
		if mention.Type == domain.MentionMember {
			memberIDs = append(memberIDs, mention.Target)
		}
	}
	if err := s.refs.Check(ctx, memberIDs, []string{m.ChannelID}); err != nil {
		var missing *domain.MissingReferencesError
		if errors.As(err, &missing) {
			metrics.MissingReferenceRejections.Inc()
		}
		return domain.Message{}, err
	}
	stored, err := s.messages.CreateMessage(ctx, m)
	if err != nil {
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	return stored, nil
}

// Get returns one message with mentions and attachments.
func (s *Service) Get(ctx context.Context, id string) (domain.Message, error) {
	return s.messages.GetMessage(ctx, id)
}

// Update applies a partial update to a message.
func (s *Service) Update(ctx context.Context, id string, upd domain.MessageUpdate) (domain.Message, error) {
	return s.messages.UpdateMessage(ctx, id, upd)
}

// SetPinned flips the pinned flag.
func (s *Service) SetPinned(ctx context.Context, id string, pinned bool) (domain.Message, error) {
	return s.messages.UpdateMessage(ctx, id, domain.MessageUpdate{Pinned: &pinned})
}

// Delete marks a message deleted. The row is kept; deletion is a flag
// plus timestamp.
func (s *Service) Delete(ctx context.Context, id string) (domain.Message, error) {
	deleted := true
	now := s.clock.Now()
	return s.messages.UpdateMessage(ctx, id, domain.MessageUpdate{
		Deleted:          &deleted,
		DeletedTimestamp: &now,
	})
}

// List returns messages matching the query. With an epoch token the
// result is windowed to that epoch; without one it falls back to the
// secondary keys alone. An empty result is reported as not found.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Message, error) {
	filter := domain.MessageFilter{Author: q.Author, ChannelID: q.ChannelID}
	if q.EpochToken != "" {
		epoch, err := s.epochs.Resolve(ctx, q.EpochToken)
		if err != nil {
			return nil, err
		}
		filter.Window = &domain.Window{Start: epoch.Start, End: epoch.End}
	} else if q.Author == "" && q.ChannelID == "" {
		return nil, ErrNoFilter
	}
	rows, err := s.messages.ListMessages(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows, nil
}
