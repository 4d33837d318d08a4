package domain

import "time"

// ChannelType classifies a tracked channel.
type ChannelType string

const (
	ChannelText     ChannelType = "text"
	ChannelVoice    ChannelType = "voice"
	ChannelCategory ChannelType = "category"
	ChannelThread   ChannelType = "thread"
	ChannelForum    ChannelType = "forum"
	ChannelStage    ChannelType = "stage"
	ChannelOther    ChannelType = "other"
)

// Valid reports whether the value belongs to the closed enum.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelText, ChannelVoice, ChannelCategory, ChannelThread, ChannelForum, ChannelStage, ChannelOther:
		return true
	}
	return false
}

// VoiceEventType classifies a voice-channel state change.
type VoiceEventType string

const (
	VoiceJoin         VoiceEventType = "join"
	VoiceLeave        VoiceEventType = "leave"
	VoiceMove         VoiceEventType = "move"
	VoiceDeafen       VoiceEventType = "deafen"
	VoiceUndeafen     VoiceEventType = "undeafen"
	VoiceMute         VoiceEventType = "mute"
	VoiceUnmute       VoiceEventType = "unmute"
	VoiceServerDeafen VoiceEventType = "server deafen"
	VoiceServerUndeaf VoiceEventType = "server undeafen"
	VoiceServerMute   VoiceEventType = "server mute"
	VoiceServerUnmute VoiceEventType = "server unmute"
	VoiceWebcamStart  VoiceEventType = "webcam start"
	VoiceWebcamStop   VoiceEventType = "webcam stop"
	VoiceStreamStart  VoiceEventType = "stream start"
	VoiceStreamStop   VoiceEventType = "stream stop"
)

// Valid reports whether the value belongs to the closed enum.
func (t VoiceEventType) Valid() bool {
	switch t {
	case VoiceJoin, VoiceLeave, VoiceMove, VoiceDeafen, VoiceUndeafen, VoiceMute, VoiceUnmute,
		VoiceServerDeafen, VoiceServerUndeaf, VoiceServerMute, VoiceServerUnmute,
		VoiceWebcamStart, VoiceWebcamStop, VoiceStreamStart, VoiceStreamStop:
		return true
	}
	return false
}

// MentionType classifies a mention target.
type MentionType string

const (
	MentionMember   MentionType = "member"
	MentionRole     MentionType = "role"
	MentionChannel  MentionType = "channel"
	MentionEveryone MentionType = "everyone"
)

// Valid reports whether the value belongs to the closed enum.
func (t MentionType) Valid() bool {
	switch t {
	case MentionMember, MentionRole, MentionChannel, MentionEveryone:
		return true
	}
	return false
}

// Epoch is a half-open time interval [Start, End) used to bucket scores
// and windowed queries. Rows are owned by an external administrative
// process; this service only reads them.
type Epoch struct {
	ID    int
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the epoch's window.
func (e Epoch) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Member is an external chat-platform identity tracked by the service.
// The ID is assigned by the platform, not by this service.
type Member struct {
	ID       string
	Username string
	Nickname string
	Numbers  string
	Bot      bool
}

// Score is a per-member, per-epoch metric. At most one row exists per
// (epoch, member) pair; rows are never updated in place.
type Score struct {
	Epoch         int
	MemberID      string
	Score         int
	DateProcessed time.Time
}

// Channel describes a tracked channel.
type Channel struct {
	ID       string
	Name     string
	Category string
	Thread   bool
	Type     ChannelType
}

// Mention is a single mention inside a message. Order is preserved.
type Mention struct {
	MessageID string
	Target    string
	Type      MentionType
}

// Attachment is a single attachment of a message. Order is preserved.
type Attachment struct {
	MessageID string
	URL       string
	Sticker   bool
}

// Message is a stored chat message. Deletion is logical: the row stays
// and only the flag plus timestamp are set.
type Message struct {
	ID               string
	Timestamp        time.Time
	Content          string
	Author           string
	ReplyingTo       string
	ChannelID        string
	Mentions         []Mention
	Attachments      []Attachment
	Edited           bool
	EditedTimestamp  *time.Time
	Deleted          bool
	DeletedTimestamp *time.Time
	Pinned           bool
}

// Reaction is keyed by (message, member, emoji); a member cannot react
// twice with the same emoji on the same message.
type Reaction struct {
	MessageID string
	MemberID  string
	Emoji     string
	Timestamp time.Time
}

// VoiceEvent is an append-only voice activity log entry.
type VoiceEvent struct {
	ID        int64
	MemberID  string
	ChannelID string
	Type      VoiceEventType
	Timestamp time.Time
}
