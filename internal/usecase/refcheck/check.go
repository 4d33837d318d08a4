package refcheck

import (
	"context"
	"fmt"
	"sort"

	"whid-api/internal/domain"
)

// Checker verifies that foreign references of an incoming write already
// exist, so the upstream ingestion bot can backfill exactly what is
// missing and retry.
type Checker struct {
	members  domain.MemberRepo
	channels domain.ChannelRepo
}

// New creates a checker.
func New(members domain.MemberRepo, channels domain.ChannelRepo) *Checker {
	return &Checker{members: members, channels: channels}
}

// Check resolves every candidate id independently and returns a
// MissingReferencesError enumerating the ones that do not exist. A nil
// return means the write may proceed.
func (c *Checker) Check(ctx context.Context, memberIDs, channelIDs []string) error {
	missingMembers, err := c.missing(ctx, memberIDs, c.members.FilterExistingMembers)
	if err != nil {
		return fmt.Errorf("check members: %w", err)
	}
	missingChannels, err := c.missing(ctx, channelIDs, c.channels.FilterExistingChannels)
	if err != nil {
		return fmt.Errorf("check channels: %w", err)
	}
	if len(missingMembers) == 0 && len(missingChannels) == 0 {
		return nil
	}
	return &domain.MissingReferencesError{Members: missingMembers, Channels: missingChannels}
}

func (c *Checker) missing(ctx context.Context, ids []string, filter func(context.Context, []string) ([]string, error)) ([]string, error) {
	uniq := dedupe(ids)
	if len(uniq) == 0 {
		return nil, nil
	}
	existing, err := filter(ctx, uniq)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	var missing []string
	for _, id := range uniq {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
