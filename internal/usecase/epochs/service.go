package epochs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"whid-api/internal/domain"
)

// Symbolic epoch tokens accepted by the API.
const (
	TokenCurrent  = "current"
	TokenPrevious = "previous"
)

// ErrBadToken is returned for a token outside the closed enumeration.
var ErrBadToken = errors.New(`epoch must be an integer, "current" or "previous"`)

// Service resolves symbolic epoch tokens against the epoch store.
type Service struct {
	repo  domain.EpochRepo
	clock domain.Clock
}

// NewService creates the epoch service.
func NewService(repo domain.EpochRepo, clock domain.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// Resolve maps a literal id or a symbolic token to a stored epoch.
// Literal ids pass through ResolveID unchecked; the lookup below is
// what rejects out-of-range, zero and negative ids with ErrNotFound.
func (s *Service) Resolve(ctx context.Context, token string) (domain.Epoch, error) {
	id, err := s.ResolveID(ctx, token)
	if err != nil {
		return domain.Epoch{}, err
	}
	return s.repo.GetEpoch(ctx, id)
}

// ResolveID turns a token into a concrete epoch id without checking
// that the id exists.
func (s *Service) ResolveID(ctx context.Context, token string) (int, error) {
	if id, err := strconv.Atoi(token); err == nil {
		return id, nil
	}
	switch token {
	case TokenCurrent:
		current, err := s.current(ctx)
		if err != nil {
			return 0, err
		}
		return current.ID, nil
	case TokenPrevious:
		// "previous" is defined by id adjacency, not window adjacency.
		// Resolve then verifies the id exists, so a gap in ids surfaces
		// as not-found instead of a wrong window.
		current, err := s.current(ctx)
		if err != nil {
			return 0, err
		}
		return current.ID - 1, nil
	}
	return 0, ErrBadToken
}

// List returns all configured epochs ordered by id.
func (s *Service) List(ctx context.Context) ([]domain.Epoch, error) {
	return s.repo.ListEpochs(ctx)
}

func (s *Service) current(ctx context.Context) (domain.Epoch, error) {
	epoch, err := s.repo.EpochAt(ctx, s.clock.Now())
	if err != nil {
		return domain.Epoch{}, fmt.Errorf("current epoch: %w", err)
	}
	return epoch, nil
}
