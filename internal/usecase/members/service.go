package members

import (
	"context"
	"fmt"

	"whid-api/internal/domain"
)

// ScoreBootstrapper seeds the default score for a new member.
type ScoreBootstrapper interface {
	EnsureDefault(ctx context.Context, memberID string) error
}

// Service manages member records.
type Service struct {
	members domain.MemberRepo
	scores  ScoreBootstrapper
}

// NewService creates the member service.
func NewService(members domain.MemberRepo, scores ScoreBootstrapper) *Service {
	return &Service{members: members, scores: scores}
}

// Register stores the member and, for a member without any score rows,
// synthesizes the default score at the current epoch. Re-registering an
// existing member updates the profile and leaves scores untouched.
func (s *Service) Register(ctx context.Context, m domain.Member) (domain.Member, error) {
	stored, err := s.members.UpsertMember(ctx, m)
	if err != nil {
		return domain.Member{}, fmt.Errorf("store member: %w", err)
	}
	if err := s.scores.EnsureDefault(ctx, stored.ID); err != nil {
		return domain.Member{}, fmt.Errorf("bootstrap score: %w", err)
	}
	return stored, nil
}

// Get returns one member.
func (s *Service) Get(ctx context.Context, id string) (domain.Member, error) {
	return s.members.GetMember(ctx, id)
}

// Update applies a partial update to a member.
func (s *Service) Update(ctx context.Context, id string, upd domain.MemberUpdate) (domain.Member, error) {
	return s.members.UpdateMember(ctx, id, upd)
}
