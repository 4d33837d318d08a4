package api

import (
	"time"

	"whid-api/internal/domain"
)

type mentionDTO struct {
	MsgID   string `json:"msg_id"`
	Mention string `json:"mention"`
	Type    string `json:"type"`
}

type attachmentDTO struct {
	MsgID   string `json:"msg_id"`
	URL     string `json:"url"`
	Sticker bool   `json:"sticker"`
}

type messageDTO struct {
	ID               string          `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	Content          string          `json:"content"`
	Author           string          `json:"author"`
	ReplyingTo       *string         `json:"replying_to"`
	Channel          string          `json:"channel"`
	Mentions         []mentionDTO    `json:"mentions"`
	Attachments      []attachmentDTO `json:"attachments"`
	Edited           bool            `json:"edited"`
	EditedTimestamp  *time.Time      `json:"edited_timestamp"`
	Deleted          bool            `json:"deleted"`
	DeletedTimestamp *time.Time      `json:"deleted_timestamp"`
	Pinned           bool            `json:"pinned"`
}

func toMessageDTO(m domain.Message) messageDTO {
	dto := messageDTO{
		ID:               m.ID,
		Timestamp:        m.Timestamp,
		Content:          m.Content,
		Author:           m.Author,
		Channel:          m.ChannelID,
		Mentions:         []mentionDTO{},
		Attachments:      []attachmentDTO{},
		Edited:           m.Edited,
		EditedTimestamp:  m.EditedTimestamp,
		Deleted:          m.Deleted,
		DeletedTimestamp: m.DeletedTimestamp,
		Pinned:           m.Pinned,
	}
	if m.ReplyingTo != "" {
		dto.ReplyingTo = &m.ReplyingTo
	}
	for _, mn := range m.Mentions {
		dto.Mentions = append(dto.Mentions, mentionDTO{MsgID: mn.MessageID, Mention: mn.Target, Type: string(mn.Type)})
	}
	for _, a := range m.Attachments {
		dto.Attachments = append(dto.Attachments, attachmentDTO{MsgID: a.MessageID, URL: a.URL, Sticker: a.Sticker})
	}
	return dto
}

func toMessageDTOs(msgs []domain.Message) []messageDTO {
	out := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageDTO(m))
	}
	return out
}

type memberDTO struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Nickname *string `json:"nickname"`
	Numbers  string  `json:"numbers"`
	Bot      bool    `json:"bot"`
}

func toMemberDTO(m domain.Member) memberDTO {
	dto := memberDTO{ID: m.ID, Username: m.Username, Numbers: m.Numbers, Bot: m.Bot}
	if m.Nickname != "" {
		dto.Nickname = &m.Nickname
	}
	return dto
}

type channelDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
	Thread   bool    `json:"thread"`
	Type     string  `json:"type"`
}

func toChannelDTO(c domain.Channel) channelDTO {
	dto := channelDTO{ID: c.ID, Name: c.Name, Thread: c.Thread, Type: string(c.Type)}
	if c.Category != "" {
		dto.Category = &c.Category
	}
	return dto
}

type reactionDTO struct {
	MemberID  string    `json:"member_id"`
	MsgID     string    `json:"msg_id"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
}

func toReactionDTO(r domain.Reaction) reactionDTO {
	return reactionDTO{MemberID: r.MemberID, MsgID: r.MessageID, Emoji: r.Emoji, Timestamp: r.Timestamp}
}

func toReactionDTOs(rs []domain.Reaction) []reactionDTO {
	out := make([]reactionDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReactionDTO(r))
	}
	return out
}

type voiceEventDTO struct {
	MemberID  string    `json:"member_id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}

func toVoiceEventDTOs(evs []domain.VoiceEvent) []voiceEventDTO {
	out := make([]voiceEventDTO, 0, len(evs))
	for _, ev := range evs {
		out = append(out, voiceEventDTO{MemberID: ev.MemberID, Type: string(ev.Type), Channel: ev.ChannelID, Timestamp: ev.Timestamp})
	}
	return out
}

type scoreDTO struct {
	Epoch         int    `json:"epoch"`
	MemberID      string `json:"member_id"`
	Score         int    `json:"score"`
	DateProcessed string `json:"date_processed"`
}

func toScoreDTO(s domain.Score) scoreDTO {
	return scoreDTO{
		Epoch:         s.Epoch,
		MemberID:      s.MemberID,
		Score:         s.Score,
		DateProcessed: s.DateProcessed.Format("2006-01-02"),
	}
}

func toScoreDTOs(ss []domain.Score) []scoreDTO {
	out := make([]scoreDTO, 0, len(ss))
	for _, s := range ss {
		out = append(out, toScoreDTO(s))
	}
	return out
}

type epochDTO struct {
	ID    int       `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func toEpochDTO(e domain.Epoch) epochDTO {
	return epochDTO{ID: e.ID, Start: e.Start, End: e.End}
}

func toEpochDTOs(es []domain.Epoch) []epochDTO {
	out := make([]epochDTO, 0, len(es))
	for _, e := range es {
		out = append(out, toEpochDTO(e))
	}
	return out
}
