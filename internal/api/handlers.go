package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"whid-api/internal/domain"
	"whid-api/internal/usecase/messages"
	"whid-api/internal/usecase/scores"
	"whid-api/internal/usecase/voice"
)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

type putMessageRequest struct {
	ID               string          `json:"id"`
	Timestamp        *time.Time      `json:"timestamp"`
	Content          *string         `json:"content"`
	Author           string          `json:"author"`
	ReplyingTo       string          `json:"replying_to"`
	Channel          string          `json:"channel"`
	Mentions         []mentionDTO    `json:"mentions"`
	Attachments      []attachmentDTO `json:"attachments"`
	Edited           bool            `json:"edited"`
	EditedTimestamp  *time.Time      `json:"edited_timestamp"`
	Deleted          bool            `json:"deleted"`
	DeletedTimestamp *time.Time      `json:"deleted_timestamp"`
	Pinned           bool            `json:"pinned"`
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.messages.Get(r.Context(), chi.URLParam(r, "msgID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (s *Server) handlePutMessage(w http.ResponseWriter, r *http.Request) {
	var req putMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Timestamp == nil || req.Content == nil || req.Author == "" || req.Channel == "" {
		writeError(w, http.StatusUnprocessableEntity, "timestamp, content, author and channel are required")
		return
	}
	msgID := chi.URLParam(r, "msgID")
	mentions, ok := mentionsFromDTOs(w, msgID, req.Mentions)
	if !ok {
		return
	}
	attachments := make([]domain.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if a.URL == "" {
			writeError(w, http.StatusUnprocessableEntity, "attachment url is required")
			return
		}
		attachments = append(attachments, domain.Attachment{MessageID: msgID, URL: a.URL, Sticker: a.Sticker})
	}

	msg, err := s.messages.Create(r.Context(), domain.Message{
		ID:               msgID,
		Timestamp:        *req.Timestamp,
		Content:          *req.Content,
		Author:           req.Author,
		ReplyingTo:       req.ReplyingTo,
		ChannelID:        req.Channel,
		Mentions:         mentions,
		Attachments:      attachments,
		Edited:           req.Edited,
		EditedTimestamp:  req.EditedTimestamp,
		Deleted:          req.Deleted,
		DeletedTimestamp: req.DeletedTimestamp,
		Pinned:           req.Pinned,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

type patchMessageRequest struct {
	Content          *string       `json:"content"`
	Mentions         *[]mentionDTO `json:"mentions"`
	Edited           *bool         `json:"edited"`
	EditedTimestamp  *time.Time    `json:"edited_timestamp"`
	Deleted          *bool         `json:"deleted"`
	DeletedTimestamp *time.Time    `json:"deleted_timestamp"`
	Pinned           *bool         `json:"pinned"`
}

func (s *Server) handlePatchMessage(w http.ResponseWriter, r *http.Request) {
	var req patchMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msgID := chi.URLParam(r, "msgID")
	upd := domain.MessageUpdate{
		Content:          req.Content,
		Edited:           req.Edited,
		EditedTimestamp:  req.EditedTimestamp,
		Deleted:          req.Deleted,
		DeletedTimestamp: req.DeletedTimestamp,
		Pinned:           req.Pinned,
	}
	if req.Mentions != nil {
		mentions, ok := mentionsFromDTOs(w, msgID, *req.Mentions)
		if !ok {
			return
		}
		upd.Mentions = &mentions
	}
	msg, err := s.messages.Update(r.Context(), msgID, upd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.messages.Delete(r.Context(), chi.URLParam(r, "msgID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (s *Server) handlePinMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.messages.SetPinned(r.Context(), chi.URLParam(r, "msgID"), true)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (s *Server) handleUnpinMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.messages.SetPinned(r.Context(), chi.URLParam(r, "msgID"), false)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	msgs, err := s.messages.List(r.Context(), messages.ListQuery{
		EpochToken: q.Get("epoch"),
		Author:     q.Get("member_id"),
		ChannelID:  q.Get("channel"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTOs(msgs))
}

func mentionsFromDTOs(w http.ResponseWriter, msgID string, dtos []mentionDTO) ([]domain.Mention, bool) {
	mentions := make([]domain.Mention, 0, len(dtos))
	for _, mn := range dtos {
		kind := domain.MentionType(mn.Type)
		if mn.Mention == "" || !kind.Valid() {
			writeError(w, http.StatusUnprocessableEntity, "mention target and a valid type are required")
			return nil, false
		}
		mentions = append(mentions, domain.Mention{MessageID: msgID, Target: mn.Mention, Type: kind})
	}
	return mentions, true
}

type putMemberRequest struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Nickname *string `json:"nickname"`
	Numbers  string  `json:"numbers"`
	Bot      bool    `json:"bot"`
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	member, err := s.members.Get(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(member))
}

func (s *Server) handlePutMember(w http.ResponseWriter, r *http.Request) {
	var req putMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Numbers == "" {
		writeError(w, http.StatusUnprocessableEntity, "username and numbers are required")
		return
	}
	m := domain.Member{
		ID:       chi.URLParam(r, "memberID"),
		Username: req.Username,
		Numbers:  req.Numbers,
		Bot:      req.Bot,
	}
	if req.Nickname != nil {
		m.Nickname = *req.Nickname
	}
	member, err := s.members.Register(r.Context(), m)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(member))
}

type patchMemberRequest struct {
	Username *string `json:"username"`
	Nickname *string `json:"nickname"`
	Numbers  *string `json:"numbers"`
}

func (s *Server) handlePatchMember(w http.ResponseWriter, r *http.Request) {
	var req patchMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	member, err := s.members.Update(r.Context(), chi.URLParam(r, "memberID"), domain.MemberUpdate{
		Username: req.Username,
		Nickname: req.Nickname,
		Numbers:  req.Numbers,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(member))
}

type putChannelRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
	Thread   bool    `json:"thread"`
	Type     string  `json:"type"`
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := s.channels.Get(r.Context(), chi.URLParam(r, "chanID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelDTO(channel))
}

func (s *Server) handlePutChannel(w http.ResponseWriter, r *http.Request) {
	var req putChannelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind := domain.ChannelType(req.Type)
	if req.Name == "" || !kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "name and a valid type are required")
		return
	}
	c := domain.Channel{
		ID:     chi.URLParam(r, "chanID"),
		Name:   req.Name,
		Thread: req.Thread,
		Type:   kind,
	}
	if req.Category != nil {
		c.Category = *req.Category
	}
	channel, err := s.channels.Put(r.Context(), c)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelDTO(channel))
}

type patchChannelRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
}

func (s *Server) handlePatchChannel(w http.ResponseWriter, r *http.Request) {
	var req patchChannelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	channel, err := s.channels.Update(r.Context(), chi.URLParam(r, "chanID"), domain.ChannelUpdate{
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChannelDTO(channel))
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.channels.Delete(r.Context(), chi.URLParam(r, "chanID")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postReactionRequest struct {
	MemberID  string     `json:"member_id"`
	MsgID     string     `json:"msg_id"`
	Emoji     string     `json:"emoji"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	var req postReactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MemberID == "" || req.MsgID == "" || req.Emoji == "" || req.Timestamp == nil {
		writeError(w, http.StatusUnprocessableEntity, "member_id, msg_id, emoji and timestamp are required")
		return
	}
	reaction, err := s.reactions.Add(r.Context(), domain.Reaction{
		MessageID: req.MsgID,
		MemberID:  req.MemberID,
		Emoji:     req.Emoji,
		Timestamp: *req.Timestamp,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReactionDTO(reaction))
}

type deleteReactionRequest struct {
	MemberID string `json:"member_id"`
	MsgID    string `json:"msg_id"`
	Emoji    string `json:"emoji"`
}

func (s *Server) handleDeleteReaction(w http.ResponseWriter, r *http.Request) {
	var req deleteReactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MemberID == "" || req.MsgID == "" || req.Emoji == "" {
		writeError(w, http.StatusUnprocessableEntity, "member_id, msg_id and emoji are required")
		return
	}
	reaction, err := s.reactions.Remove(r.Context(), req.MsgID, req.MemberID, req.Emoji)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReactionDTO(reaction))
}

func (s *Server) handleListReactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	epochToken := q.Get("epoch")
	memberID := q.Get("member_id")
	if epochToken == "" || memberID == "" {
		writeError(w, http.StatusUnprocessableEntity, "epoch and member_id are required")
		return
	}
	rows, err := s.reactions.List(r.Context(), epochToken, memberID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReactionDTOs(rows))
}

type postVoiceEventRequest struct {
	MemberID  string     `json:"member_id"`
	Type      string     `json:"type"`
	Channel   string     `json:"channel"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) handleAddVoiceEvent(w http.ResponseWriter, r *http.Request) {
	var req postVoiceEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind := domain.VoiceEventType(req.Type)
	if req.MemberID == "" || req.Channel == "" || req.Timestamp == nil || !kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "member_id, channel, timestamp and a valid type are required")
		return
	}
	ev, err := s.voice.Add(r.Context(), domain.VoiceEvent{
		MemberID:  req.MemberID,
		ChannelID: req.Channel,
		Type:      kind,
		Timestamp: *req.Timestamp,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voiceEventDTO{
		MemberID:  ev.MemberID,
		Type:      string(ev.Type),
		Channel:   ev.ChannelID,
		Timestamp: ev.Timestamp,
	})
}

func (s *Server) handleListVoiceEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	memberID := q.Get("member_id")
	if memberID == "" {
		writeError(w, http.StatusUnprocessableEntity, "member_id is required")
		return
	}
	query := voice.ListQuery{MemberID: memberID, EpochToken: q.Get("epoch")}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "since must be an RFC 3339 timestamp")
			return
		}
		query.Since = &since
	}
	rows, err := s.voice.List(r.Context(), query)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVoiceEventDTOs(rows))
}

type scoreEntryRequest struct {
	Epoch    int    `json:"epoch"`
	MemberID string `json:"member_id"`
	Score    int    `json:"score"`
}

func (s *Server) handlePostScores(w http.ResponseWriter, r *http.Request) {
	var req []scoreEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "at least one score is required")
		return
	}
	entries := make([]scores.Entry, 0, len(req))
	for _, e := range req {
		if e.Epoch <= 0 || e.MemberID == "" {
			writeError(w, http.StatusUnprocessableEntity, "epoch and member_id are required for every score")
			return
		}
		entries = append(entries, scores.Entry{Epoch: e.Epoch, MemberID: e.MemberID, Score: e.Score})
	}
	batchID, err := s.scores.Record(r.Context(), entries, r.Header.Get("Idempotency-Key"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   fmt.Sprintf("success! %d scores have been processed", len(entries)),
		"batch_id": batchID.String(),
	})
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	epochToken := q.Get("epoch")
	memberID := q.Get("member_id")
	if epochToken == "" || memberID == "" {
		writeError(w, http.StatusUnprocessableEntity, "epoch and member_id are required")
		return
	}
	score, err := s.scores.Get(r.Context(), memberID, epochToken)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoreDTO(score))
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	epochToken := r.URL.Query().Get("epoch")
	if epochToken == "" {
		writeError(w, http.StatusUnprocessableEntity, "epoch is required")
		return
	}
	rows, err := s.scores.List(r.Context(), epochToken)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoreDTOs(rows))
}

func (s *Server) handleGetEpoch(w http.ResponseWriter, r *http.Request) {
	epoch, err := s.epochs.Resolve(r.Context(), chi.URLParam(r, "epoch"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEpochDTO(epoch))
}

func (s *Server) handleListEpochs(w http.ResponseWriter, r *http.Request) {
	epochs, err := s.epochs.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEpochDTOs(epochs))
}
