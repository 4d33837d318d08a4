package reactions

import (
	"context"
	"fmt"

	"whid-api/internal/domain"
)

// EpochResolver maps epoch tokens to stored epochs.
type EpochResolver interface {
	Resolve(ctx context.Context, token string) (domain.Epoch, error)
}

// Service manages reactions.
type Service struct {
	reactions domain.ReactionRepo
	epochs    EpochResolver
}

// NewService creates the reaction service.
func NewService(reactions domain.ReactionRepo, epochs EpochResolver) *Service {
	return &Service{reactions: reactions, epochs: epochs}
}

// Add stores a reaction. A duplicate (message, member, emoji) triple is
// surfaced as a conflict, never merged silently.
func (s *Service) Add(ctx context.Context, r domain.Reaction) (domain.Reaction, error) {
	stored, err := s.reactions.AddReaction(ctx, r)
	if err != nil {
		return domain.Reaction{}, fmt.Errorf("store reaction: %w", err)
	}
	return stored, nil
}

// Remove deletes a reaction and returns the removed row.
func (s *Service) Remove(ctx context.Context, messageID, memberID, emoji string) (domain.Reaction, error) {
	return s.reactions.DeleteReaction(ctx, messageID, memberID, emoji)
}

// List returns the reactions of one member inside the resolved epoch's
// window. An empty result is reported as not found.
func (s *Service) List(ctx context.Context, epochToken, memberID string) ([]domain.Reaction, error) {
	epoch, err := s.epochs.Resolve(ctx, epochToken)
	if err != nil {
		return nil, err
	}
	rows, err := s.reactions.ListReactions(ctx, domain.ReactionFilter{
		MemberID: memberID,
		Window:   &domain.Window{Start: epoch.Start, End: epoch.End},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows, nil
}
