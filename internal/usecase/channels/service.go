package channels

import (
	"context"
	"fmt"

	"whid-api/internal/domain"
)

// Service manages channel records.
type Service struct {
	channels domain.ChannelRepo
}

// NewService creates the channel service.
func NewService(channels domain.ChannelRepo) *Service {
	return &Service{channels: channels}
}

// Put stores or refreshes a channel record.
func (s *Service) Put(ctx context.Context, c domain.Channel) (domain.Channel, error) {
	stored, err := s.channels.UpsertChannel(ctx, c)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("store channel: %w", err)
	}
	return stored, nil
}

// Get returns one channel.
func (s *Service) Get(ctx context.Context, id string) (domain.Channel, error) {
	return s.channels.GetChannel(ctx, id)
}

// Update applies a partial update to a channel.
func (s *Service) Update(ctx context.Context, id string, upd domain.ChannelUpdate) (domain.Channel, error) {
	return s.channels.UpdateChannel(ctx, id, upd)
}

// Delete removes a channel record.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.channels.DeleteChannel(ctx, id)
}
