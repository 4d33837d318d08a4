package domain

import (
	"context"
	"time"
)

// Clock supplies "now" so epoch resolution stays deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Window is a half-open time interval used by epoch-bucketed queries.
type Window struct {
	Start time.Time
	End   time.Time
}

// EpochRepo reads the epoch table.
type EpochRepo interface {
	GetEpoch(ctx context.Context, id int) (Epoch, error)
	ListEpochs(ctx context.Context) ([]Epoch, error)
	EpochAt(ctx context.Context, t time.Time) (Epoch, error)
}

// MemberUpdate carries the fields of a partial member update.
type MemberUpdate struct {
	Username *string
	Nickname *string
	Numbers  *string
}

// MemberRepo manages members.
type MemberRepo interface {
	GetMember(ctx context.Context, id string) (Member, error)
	UpsertMember(ctx context.Context, m Member) (Member, error)
	UpdateMember(ctx context.Context, id string, upd MemberUpdate) (Member, error)
	FilterExistingMembers(ctx context.Context, ids []string) ([]string, error)
}

// ChannelUpdate carries the fields of a partial channel update.
type ChannelUpdate struct {
	Name     *string
	Category *string
}

// ChannelRepo manages channels.
type ChannelRepo interface {
	GetChannel(ctx context.Context, id string) (Channel, error)
	UpsertChannel(ctx context.Context, c Channel) (Channel, error)
	UpdateChannel(ctx context.Context, id string, upd ChannelUpdate) (Channel, error)
	DeleteChannel(ctx context.Context, id string) error
	FilterExistingChannels(ctx context.Context, ids []string) ([]string, error)
}

// MessageUpdate carries the fields of a partial message update. A
// non-nil Mentions replaces the stored mention list wholesale.
type MessageUpdate struct {
	Content          *string
	Mentions         *[]Mention
	Edited           *bool
	EditedTimestamp  *time.Time
	Deleted          *bool
	DeletedTimestamp *time.Time
	Pinned           *bool
}

// MessageFilter selects messages by secondary key and/or time window.
type MessageFilter struct {
	Author    string
	ChannelID string
	Window    *Window
}

// MessageRepo manages messages together with their mentions and
// attachments.
type MessageRepo interface {
	GetMessage(ctx context.Context, id string) (Message, error)
	CreateMessage(ctx context.Context, m Message) (Message, error)
	UpdateMessage(ctx context.Context, id string, upd MessageUpdate) (Message, error)
	ListMessages(ctx context.Context, f MessageFilter) ([]Message, error)
}

// ReactionFilter selects reactions by member and/or time window.
type ReactionFilter struct {
	MemberID string
	Window   *Window
}

// ReactionRepo manages reactions.
type ReactionRepo interface {
	AddReaction(ctx context.Context, r Reaction) (Reaction, error)
	DeleteReaction(ctx context.Context, messageID, memberID, emoji string) (Reaction, error)
	ListReactions(ctx context.Context, f ReactionFilter) ([]Reaction, error)
}

// VoiceEventFilter selects voice events by member and either an epoch
// window or an open-ended "since" bound.
type VoiceEventFilter struct {
	MemberID string
	Since    *time.Time
	Window   *Window
}

// VoiceEventRepo manages the voice activity log.
type VoiceEventRepo interface {
	AddVoiceEvent(ctx context.Context, ev VoiceEvent) (VoiceEvent, error)
	ListVoiceEvents(ctx context.Context, f VoiceEventFilter) ([]VoiceEvent, error)
}

// ScoreRepo manages the scoring ledger. InsertScores runs in a single
// transaction: the first constraint violation rolls the batch back.
type ScoreRepo interface {
	InsertScores(ctx context.Context, scores []Score) error
	ListScores(ctx context.Context, epoch int) ([]Score, error)
	GetScore(ctx context.Context, epoch int, memberID string) (Score, error)
	HasScores(ctx context.Context, memberID string) (bool, error)
}

// Cache is a small TTL guard used for idempotent ingestion.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}
