package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"whid-api/internal/domain"
	"whid-api/internal/usecase/channels"
	"whid-api/internal/usecase/epochs"
	"whid-api/internal/usecase/members"
	"whid-api/internal/usecase/messages"
	"whid-api/internal/usecase/reactions"
	"whid-api/internal/usecase/refcheck"
	"whid-api/internal/usecase/scores"
	"whid-api/internal/usecase/voice"
)

const testToken = "test-token"

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// memStore is an in-memory stand-in for the Postgres adapter, enough
// to drive the full HTTP stack in tests.
type memStore struct {
	epochs    []domain.Epoch
	members   map[string]domain.Member
	channels  map[string]domain.Channel
	messages  map[string]domain.Message
	reactions []domain.Reaction
	voice     []domain.VoiceEvent
	scores    map[int]map[string]domain.Score
}

func newMemStore() *memStore {
	day := func(month, d int) time.Time {
		return time.Date(2022, time.Month(month), d, 0, 0, 0, 0, time.UTC)
	}
	return &memStore{
		epochs: []domain.Epoch{
			{ID: 1, Start: day(1, 1), End: day(2, 1)},
			{ID: 2, Start: day(2, 1), End: day(3, 1)},
			{ID: 3, Start: day(3, 1), End: day(5, 1)},
		},
		members:  map[string]domain.Member{},
		channels: map[string]domain.Channel{},
		messages: map[string]domain.Message{},
		scores:   map[int]map[string]domain.Score{},
	}
}

func (s *memStore) GetEpoch(_ context.Context, id int) (domain.Epoch, error) {
	for _, e := range s.epochs {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Epoch{}, domain.ErrNotFound
}

func (s *memStore) ListEpochs(context.Context) ([]domain.Epoch, error) { return s.epochs, nil }

func (s *memStore) EpochAt(_ context.Context, t time.Time) (domain.Epoch, error) {
	for _, e := range s.epochs {
		if e.Contains(t) {
			return e, nil
		}
	}
	return domain.Epoch{}, domain.ErrNotFound
}

func (s *memStore) GetMember(_ context.Context, id string) (domain.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return domain.Member{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *memStore) UpsertMember(_ context.Context, m domain.Member) (domain.Member, error) {
	s.members[m.ID] = m
	return m, nil
}

func (s *memStore) UpdateMember(_ context.Context, id string, upd domain.MemberUpdate) (domain.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return domain.Member{}, domain.ErrNotFound
	}
	if upd.Username != nil {
		m.Username = *upd.Username
	}
	if upd.Nickname != nil {
		m.Nickname = *upd.Nickname
	}
	if upd.Numbers != nil {
		m.Numbers = *upd.Numbers
	}
	s.members[id] = m
	return m, nil
}

func (s *memStore) FilterExistingMembers(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if _, ok := s.members[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memStore) GetChannel(_ context.Context, id string) (domain.Channel, error) {
	c, ok := s.channels[id]
	if !ok {
		return domain.Channel{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *memStore) UpsertChannel(_ context.Context, c domain.Channel) (domain.Channel, error) {
	s.channels[c.ID] = c
	return c, nil
}

func (s *memStore) UpdateChannel(_ context.Context, id string, upd domain.ChannelUpdate) (domain.Channel, error) {
	c, ok := s.channels[id]
	if !ok {
		return domain.Channel{}, domain.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Category != nil {
		c.Category = *upd.Category
	}
	s.channels[id] = c
	return c, nil
}

func (s *memStore) DeleteChannel(_ context.Context, id string) error {
	if _, ok := s.channels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.channels, id)
	return nil
}

func (s *memStore) FilterExistingChannels(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if _, ok := s.channels[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memStore) GetMessage(_ context.Context, id string) (domain.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return domain.Message{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *memStore) CreateMessage(_ context.Context, m domain.Message) (domain.Message, error) {
	if _, ok := s.messages[m.ID]; ok {
		return domain.Message{}, domain.ErrConflict
	}
	s.messages[m.ID] = m
	return m, nil
}

func (s *memStore) UpdateMessage(_ context.Context, id string, upd domain.MessageUpdate) (domain.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return domain.Message{}, domain.ErrNotFound
	}
	if upd.Content != nil {
		m.Content = *upd.Content
	}
	if upd.Mentions != nil {
		m.Mentions = *upd.Mentions
	}
	if upd.Edited != nil {
		m.Edited = *upd.Edited
	}
	if upd.EditedTimestamp != nil {
		m.EditedTimestamp = upd.EditedTimestamp
	}
	if upd.Deleted != nil {
		m.Deleted = *upd.Deleted
	}
	if upd.DeletedTimestamp != nil {
		m.DeletedTimestamp = upd.DeletedTimestamp
	}
	if upd.Pinned != nil {
		m.Pinned = *upd.Pinned
	}
	s.messages[id] = m
	return m, nil
}

func (s *memStore) ListMessages(_ context.Context, f domain.MessageFilter) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range s.messages {
		if f.Author != "" && m.Author != f.Author {
			continue
		}
		if f.ChannelID != "" && m.ChannelID != f.ChannelID {
			continue
		}
		if f.Window != nil && (m.Timestamp.Before(f.Window.Start) || !m.Timestamp.Before(f.Window.End)) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) AddReaction(_ context.Context, r domain.Reaction) (domain.Reaction, error) {
	for _, row := range s.reactions {
		if row.MessageID == r.MessageID && row.MemberID == r.MemberID && row.Emoji == r.Emoji {
			return domain.Reaction{}, domain.ErrConflict
		}
	}
	s.reactions = append(s.reactions, r)
	return r, nil
}

func (s *memStore) DeleteReaction(_ context.Context, messageID, memberID, emoji string) (domain.Reaction, error) {
	for i, row := range s.reactions {
		if row.MessageID == messageID && row.MemberID == memberID && row.Emoji == emoji {
			s.reactions = append(s.reactions[:i], s.reactions[i+1:]...)
			return row, nil
		}
	}
	return domain.Reaction{}, domain.ErrNotFound
}

func (s *memStore) ListReactions(_ context.Context, f domain.ReactionFilter) ([]domain.Reaction, error) {
	var out []domain.Reaction
	for _, row := range s.reactions {
		if f.MemberID != "" && row.MemberID != f.MemberID {
			continue
		}
		if f.Window != nil && (row.Timestamp.Before(f.Window.Start) || !row.Timestamp.Before(f.Window.End)) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memStore) AddVoiceEvent(_ context.Context, ev domain.VoiceEvent) (domain.VoiceEvent, error) {
	ev.ID = int64(len(s.voice) + 1)
	s.voice = append(s.voice, ev)
	return ev, nil
}

func (s *memStore) ListVoiceEvents(_ context.Context, f domain.VoiceEventFilter) ([]domain.VoiceEvent, error) {
	var out []domain.VoiceEvent
	for _, ev := range s.voice {
		if f.MemberID != "" && ev.MemberID != f.MemberID {
			continue
		}
		if f.Window != nil && (ev.Timestamp.Before(f.Window.Start) || !ev.Timestamp.Before(f.Window.End)) {
			continue
		}
		if f.Since != nil && ev.Timestamp.Before(*f.Since) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *memStore) InsertScores(_ context.Context, rows []domain.Score) error {
	for _, row := range rows {
		if _, ok := s.scores[row.Epoch][row.MemberID]; ok {
			return domain.ErrConflict
		}
	}
	for _, row := range rows {
		if s.scores[row.Epoch] == nil {
			s.scores[row.Epoch] = map[string]domain.Score{}
		}
		s.scores[row.Epoch][row.MemberID] = row
	}
	return nil
}

func (s *memStore) ListScores(_ context.Context, epoch int) ([]domain.Score, error) {
	var out []domain.Score
	for _, row := range s.scores[epoch] {
		out = append(out, row)
	}
	return out, nil
}

func (s *memStore) GetScore(_ context.Context, epoch int, memberID string) (domain.Score, error) {
	row, ok := s.scores[epoch][memberID]
	if !ok {
		return domain.Score{}, domain.ErrNotFound
	}
	return row, nil
}

func (s *memStore) HasScores(_ context.Context, memberID string) (bool, error) {
	for _, epoch := range s.scores {
		if _, ok := epoch[memberID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	clock := fixedClock{now: time.Date(2022, 4, 10, 12, 0, 0, 0, time.UTC)}

	epochsSvc := epochs.NewService(store, clock)
	scoresSvc := scores.NewService(store, epochsSvc, clock, nil, 750, zerolog.Nop())
	membersSvc := members.NewService(store, scoresSvc)
	channelsSvc := channels.NewService(store)
	refs := refcheck.New(store, store)
	messagesSvc := messages.NewService(store, refs, epochsSvc, clock)
	reactionsSvc := reactions.NewService(store, epochsSvc)
	voiceSvc := voice.NewService(store, refs, epochsSvc)

	server := NewServer(
		membersSvc, channelsSvc, messagesSvc, reactionsSvc, voiceSvc, scoresSvc, epochsSvc,
		WithAPITokens([]string{testToken}),
	)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	status, raw := doRawRequest(t, ts, method, path, token, body)
	if len(raw) == 0 {
		return status, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode response %s: %v", raw, err)
	}
	return status, decoded
}

func doRawRequest(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, buf.Bytes()
}

func registerMember(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	status, _ := doRequest(t, ts, http.MethodPut, "/member/"+id, testToken, map[string]any{
		"username": "user-" + id,
		"numbers":  "0042",
	})
	if status != http.StatusOK {
		t.Fatalf("register member %s: status %d", id, status)
	}
}

func registerChannel(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	status, _ := doRequest(t, ts, http.MethodPut, "/channel/"+id, testToken, map[string]any{
		"name": "chan-" + id,
		"type": "text",
	})
	if status != http.StatusOK {
		t.Fatalf("register channel %s: status %d", id, status)
	}
}

func TestWritesRequireBearerToken(t *testing.T) {
	ts, _ := newTestServer(t)
	body := map[string]any{"username": "alice", "numbers": "0042"}

	status, payload := doRequest(t, ts, http.MethodPut, "/member/m1", "", body)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if payload["detail"] != "incorrect token" {
		t.Fatalf("unexpected body: %v", payload)
	}

	status, _ = doRequest(t, ts, http.MethodPut, "/member/m1", "wrong", body)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a wrong token, got %d", status)
	}

	status, _ = doRequest(t, ts, http.MethodPut, "/member/m1", testToken, body)
	if status != http.StatusOK {
		t.Fatalf("expected 200 with the right token, got %d", status)
	}
}

func TestMemberRegistrationBootstrapsScore(t *testing.T) {
	ts, _ := newTestServer(t)
	registerMember(t, ts, "m1")

	status, payload := doRequest(t, ts, http.MethodGet, "/member/m1", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if payload["username"] != "user-m1" || payload["nickname"] != nil {
		t.Fatalf("unexpected member: %v", payload)
	}

	// The clock sits inside epoch 3, so the default lands there.
	status, payload = doRequest(t, ts, http.MethodGet, "/score?epoch=current&member_id=m1", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if payload["score"] != float64(750) || payload["epoch"] != float64(3) {
		t.Fatalf("unexpected score: %v", payload)
	}
}

func TestMessageRejectedUntilReferencesExist(t *testing.T) {
	ts, store := newTestServer(t)
	body := map[string]any{
		"timestamp": "2022-04-10T10:00:00Z",
		"content":   "hello",
		"author":    "m1",
		"channel":   "general",
		"mentions":  []map[string]any{{"mention": "m2", "type": "member"}},
	}

	status, payload := doRequest(t, ts, http.MethodPut, "/message/msg1", testToken, body)
	if status != http.StatusFailedDependency {
		t.Fatalf("expected 424, got %d", status)
	}
	missingMembers, _ := payload["missing_members"].([]any)
	missingChannels, _ := payload["missing_channels"].([]any)
	if len(missingMembers) != 2 || len(missingChannels) != 1 {
		t.Fatalf("unexpected missing references: %v", payload)
	}
	if len(store.messages) != 0 {
		t.Fatalf("nothing may be persisted on rejection")
	}

	registerMember(t, ts, "m1")
	registerMember(t, ts, "m2")
	registerChannel(t, ts, "general")

	status, payload = doRequest(t, ts, http.MethodPut, "/message/msg1", testToken, body)
	if status != http.StatusOK {
		t.Fatalf("identical retry should succeed, got %d: %v", status, payload)
	}

	status, payload = doRequest(t, ts, http.MethodGet, "/message/msg1", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	mentions, _ := payload["mentions"].([]any)
	if payload["content"] != "hello" || len(mentions) != 1 {
		t.Fatalf("unexpected message: %v", payload)
	}
}

func TestMessageValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	status, _ := doRequest(t, ts, http.MethodPut, "/message/msg1", testToken, map[string]any{
		"timestamp": "2022-04-10T10:00:00Z",
		"author":    "m1",
		"channel":   "general",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without content, got %d", status)
	}

	status, _ = doRequest(t, ts, http.MethodPut, "/message/msg1", testToken, map[string]any{
		"timestamp": "2022-04-10T10:00:00Z",
		"content":   "hi",
		"author":    "m1",
		"channel":   "general",
		"mentions":  []map[string]any{{"mention": "m2", "type": "planet"}},
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown mention type, got %d", status)
	}
}

func TestMessageSoftDelete(t *testing.T) {
	ts, store := newTestServer(t)
	registerMember(t, ts, "m1")
	registerChannel(t, ts, "general")
	status, _ := doRequest(t, ts, http.MethodPut, "/message/msg1", testToken, map[string]any{
		"timestamp": "2022-04-10T10:00:00Z",
		"content":   "hello",
		"author":    "m1",
		"channel":   "general",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	status, payload := doRequest(t, ts, http.MethodDelete, "/message/msg1", testToken, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if payload["deleted"] != true || payload["deleted_timestamp"] == nil {
		t.Fatalf("expected a logical delete, got %v", payload)
	}
	if _, ok := store.messages["msg1"]; !ok {
		t.Fatalf("the row must survive deletion")
	}
}

func TestEpochResolution(t *testing.T) {
	ts, _ := newTestServer(t)

	status, payload := doRequest(t, ts, http.MethodGet, "/epoch/current", "", nil)
	if status != http.StatusOK || payload["id"] != float64(3) {
		t.Fatalf("expected epoch 3, got %d: %v", status, payload)
	}

	status, payload = doRequest(t, ts, http.MethodGet, "/epoch/previous", "", nil)
	if status != http.StatusOK || payload["id"] != float64(2) {
		t.Fatalf("expected epoch 2, got %d: %v", status, payload)
	}

	status, _ = doRequest(t, ts, http.MethodGet, "/epoch/99", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown id, got %d", status)
	}

	status, _ = doRequest(t, ts, http.MethodGet, "/epoch/latest", "", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown token, got %d", status)
	}

	status, raw := doRawRequest(t, ts, http.MethodGet, "/epoch/all", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var all []map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatalf("decode epochs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 epochs, got %d", len(all))
	}
}

func TestScoreIngestion(t *testing.T) {
	ts, _ := newTestServer(t)
	batch := []map[string]any{
		{"epoch": 1, "member_id": "m1", "score": 2},
		{"epoch": 2, "member_id": "m1", "score": 4},
		{"epoch": 3, "member_id": "m1", "score": 8},
	}

	status, payload := doRequest(t, ts, http.MethodPost, "/scores", testToken, batch)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, payload)
	}
	want := fmt.Sprintf("success! %d scores have been processed", len(batch))
	if payload["status"] != want || payload["batch_id"] == "" {
		t.Fatalf("unexpected response: %v", payload)
	}

	status, payload = doRequest(t, ts, http.MethodGet, "/score?epoch=2&member_id=m1", "", nil)
	if status != http.StatusOK || payload["score"] != float64(4) {
		t.Fatalf("unexpected score: %d %v", status, payload)
	}

	// Replaying one of the rows rolls the whole batch back.
	status, _ = doRequest(t, ts, http.MethodPost, "/scores", testToken, []map[string]any{
		{"epoch": 2, "member_id": "m1", "score": 9},
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate row, got %d", status)
	}

	status, _ = doRequest(t, ts, http.MethodGet, "/scores?epoch=99", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown epoch, got %d", status)
	}
}

func TestReactionLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	body := map[string]any{
		"member_id": "m1",
		"msg_id":    "msg1",
		"emoji":     "👍",
		"timestamp": "2022-04-10T10:00:00Z",
	}

	status, _ := doRequest(t, ts, http.MethodPost, "/reaction", testToken, body)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	status, _ = doRequest(t, ts, http.MethodPost, "/reaction", testToken, body)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate reaction, got %d", status)
	}

	status, raw := doRawRequest(t, ts, http.MethodGet, "/reaction?epoch=current&member_id=m1", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode reactions: %v", err)
	}
	if len(rows) != 1 || rows[0]["emoji"] != "👍" {
		t.Fatalf("unexpected reactions: %v", rows)
	}

	status, _ = doRequest(t, ts, http.MethodDelete, "/reaction", testToken, map[string]any{
		"member_id": "m1", "msg_id": "msg1", "emoji": "👍",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	status, _ = doRequest(t, ts, http.MethodGet, "/reaction?epoch=current&member_id=m1", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 once empty, got %d", status)
	}
}

func TestVoiceEventEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	registerMember(t, ts, "m1")
	registerChannel(t, ts, "lounge")

	status, _ := doRequest(t, ts, http.MethodPost, "/voice_event", testToken, map[string]any{
		"member_id": "m1",
		"type":      "join",
		"channel":   "lounge",
		"timestamp": "2022-04-10T10:00:00Z",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	status, _ = doRequest(t, ts, http.MethodPost, "/voice_event", testToken, map[string]any{
		"member_id": "m1",
		"type":      "teleport",
		"channel":   "lounge",
		"timestamp": "2022-04-10T10:00:00Z",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown event type, got %d", status)
	}

	status, raw := doRawRequest(t, ts, http.MethodGet, "/voice_event?member_id=m1&epoch=current", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode voice events: %v", err)
	}
	if len(rows) != 1 || rows[0]["type"] != "join" {
		t.Fatalf("unexpected voice events: %v", rows)
	}

	status, _ = doRequest(t, ts, http.MethodGet, "/voice_event?member_id=m1", "", nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without a time bound, got %d", status)
	}
}

func TestChannelLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	registerChannel(t, ts, "general")

	status, _ := doRequest(t, ts, http.MethodPut, "/channel/bad", testToken, map[string]any{
		"name": "bad", "type": "hologram",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown channel type, got %d", status)
	}

	status, payload := doRequest(t, ts, http.MethodPatch, "/channel/general", testToken, map[string]any{
		"category": "talk",
	})
	if status != http.StatusOK || payload["category"] != "talk" {
		t.Fatalf("unexpected channel: %d %v", status, payload)
	}

	status, _ = doRequest(t, ts, http.MethodDelete, "/channel/general", testToken, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	status, _ = doRequest(t, ts, http.MethodGet, "/channel/general", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", status)
	}
}
