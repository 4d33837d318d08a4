package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"whid-api/internal/domain"
	"whid-api/internal/infra/metrics"
)

const queryTimeout = 5 * time.Second

// Postgres implements every repository interface on top of pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.EpochRepo      = (*Postgres)(nil)
	_ domain.MemberRepo     = (*Postgres)(nil)
	_ domain.ChannelRepo    = (*Postgres)(nil)
	_ domain.MessageRepo    = (*Postgres)(nil)
	_ domain.ReactionRepo   = (*Postgres)(nil)
	_ domain.VoiceEventRepo = (*Postgres)(nil)
	_ domain.ScoreRepo      = (*Postgres)(nil)
)

// NewPostgres creates the database adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), queryTimeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, queryTimeout)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapRowError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// GetEpoch implements domain.EpochRepo.
func (p *Postgres) GetEpoch(ctx context.Context, id int) (domain.Epoch, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var epoch domain.Epoch
	err := p.pool.QueryRow(ctx, `
SELECT id, start_at, end_at FROM epoch WHERE id = $1
`, id).Scan(&epoch.ID, &epoch.Start, &epoch.End)
	metrics.ObserveStorageRequest("epoch_get", "epoch", start, err)
	if err != nil {
		return domain.Epoch{}, mapRowError(err)
	}
	return epoch, nil
}

// ListEpochs implements domain.EpochRepo.
func (p *Postgres) ListEpochs(ctx context.Context) ([]domain.Epoch, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, start_at, end_at FROM epoch ORDER BY id
`)
	metrics.ObserveStorageRequest("epoch_list", "epoch", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var epochs []domain.Epoch
	for rows.Next() {
		var epoch domain.Epoch
		if err := rows.Scan(&epoch.ID, &epoch.Start, &epoch.End); err != nil {
			return nil, err
		}
		epochs = append(epochs, epoch)
	}
	return epochs, rows.Err()
}

// EpochAt implements domain.EpochRepo.
func (p *Postgres) EpochAt(ctx context.Context, t time.Time) (domain.Epoch, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var epoch domain.Epoch
	err := p.pool.QueryRow(ctx, `
SELECT id, start_at, end_at FROM epoch WHERE start_at <= $1 AND $1 < end_at
`, t).Scan(&epoch.ID, &epoch.Start, &epoch.End)
	metrics.ObserveStorageRequest("epoch_at", "epoch", start, err)
	if err != nil {
		return domain.Epoch{}, mapRowError(err)
	}
	return epoch, nil
}

// GetMember implements domain.MemberRepo.
func (p *Postgres) GetMember(ctx context.Context, id string) (domain.Member, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	m, err := scanMember(p.pool.QueryRow(ctx, `
SELECT id, username, nickname, numbers, bot FROM member WHERE id = $1
`, id))
	metrics.ObserveStorageRequest("member_get", "member", start, err)
	if err != nil {
		return domain.Member{}, mapRowError(err)
	}
	return m, nil
}

// UpsertMember implements domain.MemberRepo.
func (p *Postgres) UpsertMember(ctx context.Context, m domain.Member) (domain.Member, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	stored, err := scanMember(p.pool.QueryRow(ctx, `
INSERT INTO member (id, username, nickname, numbers, bot)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    username = EXCLUDED.username,
    nickname = EXCLUDED.nickname,
    numbers = EXCLUDED.numbers,
    bot = EXCLUDED.bot
RETURNING id, username, nickname, numbers, bot
`, m.ID, m.Username, nullString(m.Nickname), m.Numbers, m.Bot))
	metrics.ObserveStorageRequest("member_upsert", "member", start, err)
	if err != nil {
		return domain.Member{}, mapRowError(err)
	}
	return stored, nil
}

// UpdateMember implements domain.MemberRepo.
func (p *Postgres) UpdateMember(ctx context.Context, id string, upd domain.MemberUpdate) (domain.Member, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	set := newSetClause()
	set.add("username", upd.Username)
	set.add("nickname", upd.Nickname)
	set.add("numbers", upd.Numbers)
	if set.empty() {
		return p.GetMember(ctx, id)
	}

	start := time.Now()
	query := fmt.Sprintf(`
UPDATE member SET %s WHERE id = $1
RETURNING id, username, nickname, numbers, bot
`, set.sql(2))
	m, err := scanMember(p.pool.QueryRow(ctx, query, set.args(id)...))
	metrics.ObserveStorageRequest("member_update", "member", start, err)
	if err != nil {
		return domain.Member{}, mapRowError(err)
	}
	return m, nil
}

// FilterExistingMembers implements domain.MemberRepo.
func (p *Postgres) FilterExistingMembers(ctx context.Context, ids []string) ([]string, error) {
	return p.filterExisting(ctx, "member", ids)
}

// GetChannel implements domain.ChannelRepo.
func (p *Postgres) GetChannel(ctx context.Context, id string) (domain.Channel, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	c, err := scanChannel(p.pool.QueryRow(ctx, `
SELECT id, name, category, thread, type FROM channel WHERE id = $1
`, id))
	metrics.ObserveStorageRequest("channel_get", "channel", start, err)
	if err != nil {
		return domain.Channel{}, mapRowError(err)
	}
	return c, nil
}

// UpsertChannel implements domain.ChannelRepo.
func (p *Postgres) UpsertChannel(ctx context.Context, c domain.Channel) (domain.Channel, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	stored, err := scanChannel(p.pool.QueryRow(ctx, `
INSERT INTO channel (id, name, category, thread, type)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    thread = EXCLUDED.thread,
    type = EXCLUDED.type
RETURNING id, name, category, thread, type
`, c.ID, c.Name, nullString(c.Category), c.Thread, string(c.Type)))
	metrics.ObserveStorageRequest("channel_upsert", "channel", start, err)
	if err != nil {
		return domain.Channel{}, mapRowError(err)
	}
	return stored, nil
}

// UpdateChannel implements domain.ChannelRepo.
func (p *Postgres) UpdateChannel(ctx context.Context, id string, upd domain.ChannelUpdate) (domain.Channel, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	set := newSetClause()
	set.add("name", upd.Name)
	set.add("category", upd.Category)
	if set.empty() {
		return p.GetChannel(ctx, id)
	}

	start := time.Now()
	query := fmt.Sprintf(`
UPDATE channel SET %s WHERE id = $1
RETURNING id, name, category, thread, type
`, set.sql(2))
	c, err := scanChannel(p.pool.QueryRow(ctx, query, set.args(id)...))
	metrics.ObserveStorageRequest("channel_update", "channel", start, err)
	if err != nil {
		return domain.Channel{}, mapRowError(err)
	}
	return c, nil
}

// DeleteChannel implements domain.ChannelRepo.
func (p *Postgres) DeleteChannel(ctx context.Context, id string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM channel WHERE id = $1`, id)
	metrics.ObserveStorageRequest("channel_delete", "channel", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FilterExistingChannels implements domain.ChannelRepo.
func (p *Postgres) FilterExistingChannels(ctx context.Context, ids []string) ([]string, error) {
	return p.filterExisting(ctx, "channel", ids)
}

func (p *Postgres) filterExisting(ctx context.Context, table string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1)`, table)
	rows, err := p.pool.Query(ctx, query, ids)
	metrics.ObserveStorageRequest("filter_existing", table, start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing = append(existing, id)
	}
	return existing, rows.Err()
}

// GetMessage implements domain.MessageRepo.
func (p *Postgres) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	m, err := scanMessage(p.pool.QueryRow(ctx, `
SELECT id, ts, content, author, replying_to, channel_id,
       edited, edited_ts, deleted, deleted_ts, pinned
FROM message WHERE id = $1
`, id))
	metrics.ObserveStorageRequest("message_get", "message", start, err)
	if err != nil {
		return domain.Message{}, mapRowError(err)
	}
	if err := p.attachChildren(ctx, []*domain.Message{&m}); err != nil {
		return domain.Message{}, err
	}
	return m, nil
}

// CreateMessage implements domain.MessageRepo.
func (p *Postgres) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := p.createMessageTx(ctx, m)
	metrics.ObserveStorageRequest("message_create", "message", start, err)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Message{}, domain.ErrConflict
		}
		return domain.Message{}, err
	}
	return p.GetMessage(ctx, m.ID)
}

func (p *Postgres) createMessageTx(ctx context.Context, m domain.Message) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO message (id, ts, content, author, replying_to, channel_id,
                     edited, edited_ts, deleted, deleted_ts, pinned)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, m.ID, m.Timestamp, m.Content, m.Author, nullString(m.ReplyingTo), m.ChannelID,
		m.Edited, nullTime(m.EditedTimestamp), m.Deleted, nullTime(m.DeletedTimestamp), m.Pinned)
	if err != nil {
		return err
	}
	if err := insertMentions(ctx, tx, m.ID, m.Mentions); err != nil {
		return err
	}
	for i, a := range m.Attachments {
		_, err = tx.Exec(ctx, `
INSERT INTO attachment (message_id, position, url, sticker)
VALUES ($1, $2, $3, $4)
`, m.ID, i, a.URL, a.Sticker)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertMentions(ctx context.Context, tx pgx.Tx, messageID string, mentions []domain.Mention) error {
	for i, mn := range mentions {
		_, err := tx.Exec(ctx, `
INSERT INTO mention (message_id, position, target, kind)
VALUES ($1, $2, $3, $4)
`, messageID, i, mn.Target, string(mn.Type))
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateMessage implements domain.MessageRepo.
func (p *Postgres) UpdateMessage(ctx context.Context, id string, upd domain.MessageUpdate) (domain.Message, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := p.updateMessageTx(ctx, id, upd)
	metrics.ObserveStorageRequest("message_update", "message", start, err)
	if err != nil {
		return domain.Message{}, mapRowError(err)
	}
	return p.GetMessage(ctx, id)
}

func (p *Postgres) updateMessageTx(ctx context.Context, id string, upd domain.MessageUpdate) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	set := newSetClause()
	set.add("content", upd.Content)
	set.add("edited", upd.Edited)
	set.add("edited_ts", upd.EditedTimestamp)
	set.add("deleted", upd.Deleted)
	set.add("deleted_ts", upd.DeletedTimestamp)
	set.add("pinned", upd.Pinned)

	if set.empty() {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM message WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
	} else {
		query := fmt.Sprintf(`UPDATE message SET %s WHERE id = $1`, set.sql(2))
		tag, err := tx.Exec(ctx, query, set.args(id)...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}

	if upd.Mentions != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM mention WHERE message_id = $1`, id); err != nil {
			return err
		}
		if err := insertMentions(ctx, tx, id, *upd.Mentions); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListMessages implements domain.MessageRepo.
func (p *Postgres) ListMessages(ctx context.Context, f domain.MessageFilter) ([]domain.Message, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	where := []string{"TRUE"}
	args := []any{}
	if f.Author != "" {
		args = append(args, f.Author)
		where = append(where, fmt.Sprintf("author = $%d", len(args)))
	}
	if f.ChannelID != "" {
		args = append(args, f.ChannelID)
		where = append(where, fmt.Sprintf("channel_id = $%d", len(args)))
	}
	if f.Window != nil {
		args = append(args, f.Window.Start, f.Window.End)
		where = append(where, fmt.Sprintf("ts >= $%d AND ts < $%d", len(args)-1, len(args)))
	}

	start := time.Now()
	query := fmt.Sprintf(`
SELECT id, ts, content, author, replying_to, channel_id,
       edited, edited_ts, deleted, deleted_ts, pinned
FROM message WHERE %s ORDER BY ts
`, strings.Join(where, " AND "))
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveStorageRequest("message_list", "message", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*domain.Message, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := p.attachChildren(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachChildren loads mentions and attachments for the given messages
// in two batched queries, preserving per-message ordering.
func (p *Postgres) attachChildren(ctx context.Context, msgs []*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]string, len(msgs))
	index := make(map[string]*domain.Message, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
		index[m.ID] = m
	}

	rows, err := p.pool.Query(ctx, `
SELECT message_id, target, kind FROM mention
WHERE message_id = ANY($1) ORDER BY message_id, position
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var mn domain.Mention
		var kind string
		if err := rows.Scan(&mn.MessageID, &mn.Target, &kind); err != nil {
			return err
		}
		mn.Type = domain.MentionType(kind)
		index[mn.MessageID].Mentions = append(index[mn.MessageID].Mentions, mn)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = p.pool.Query(ctx, `
SELECT message_id, url, sticker FROM attachment
WHERE message_id = ANY($1) ORDER BY message_id, position
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.MessageID, &a.URL, &a.Sticker); err != nil {
			return err
		}
		index[a.MessageID].Attachments = append(index[a.MessageID].Attachments, a)
	}
	return rows.Err()
}

// AddReaction implements domain.ReactionRepo.
func (p *Postgres) AddReaction(ctx context.Context, r domain.Reaction) (domain.Reaction, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO reaction (message_id, member_id, emoji, ts)
VALUES ($1, $2, $3, $4)
`, r.MessageID, r.MemberID, r.Emoji, r.Timestamp)
	metrics.ObserveStorageRequest("reaction_add", "reaction", start, err)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Reaction{}, domain.ErrConflict
		}
		return domain.Reaction{}, err
	}
	return r, nil
}

// DeleteReaction implements domain.ReactionRepo.
func (p *Postgres) DeleteReaction(ctx context.Context, messageID, memberID, emoji string) (domain.Reaction, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	r := domain.Reaction{MessageID: messageID, MemberID: memberID, Emoji: emoji}
	err := p.pool.QueryRow(ctx, `
DELETE FROM reaction WHERE message_id = $1 AND member_id = $2 AND emoji = $3
RETURNING ts
`, messageID, memberID, emoji).Scan(&r.Timestamp)
	metrics.ObserveStorageRequest("reaction_delete", "reaction", start, err)
	if err != nil {
		return domain.Reaction{}, mapRowError(err)
	}
	return r, nil
}

// ListReactions implements domain.ReactionRepo.
func (p *Postgres) ListReactions(ctx context.Context, f domain.ReactionFilter) ([]domain.Reaction, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	where := []string{"TRUE"}
	args := []any{}
	if f.MemberID != "" {
		args = append(args, f.MemberID)
		where = append(where, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if f.Window != nil {
		args = append(args, f.Window.Start, f.Window.End)
		where = append(where, fmt.Sprintf("ts >= $%d AND ts < $%d", len(args)-1, len(args)))
	}

	start := time.Now()
	query := fmt.Sprintf(`
SELECT message_id, member_id, emoji, ts FROM reaction
WHERE %s ORDER BY ts
`, strings.Join(where, " AND "))
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveStorageRequest("reaction_list", "reaction", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reaction
	for rows.Next() {
		var r domain.Reaction
		if err := rows.Scan(&r.MessageID, &r.MemberID, &r.Emoji, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddVoiceEvent implements domain.VoiceEventRepo.
func (p *Postgres) AddVoiceEvent(ctx context.Context, ev domain.VoiceEvent) (domain.VoiceEvent, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO voice_event (member_id, channel_id, kind, ts)
VALUES ($1, $2, $3, $4)
RETURNING id
`, ev.MemberID, ev.ChannelID, string(ev.Type), ev.Timestamp).Scan(&ev.ID)
	metrics.ObserveStorageRequest("voice_event_add", "voice_event", start, err)
	if err != nil {
		return domain.VoiceEvent{}, err
	}
	return ev, nil
}

// ListVoiceEvents implements domain.VoiceEventRepo.
func (p *Postgres) ListVoiceEvents(ctx context.Context, f domain.VoiceEventFilter) ([]domain.VoiceEvent, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	where := []string{"TRUE"}
	args := []any{}
	if f.MemberID != "" {
		args = append(args, f.MemberID)
		where = append(where, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		where = append(where, fmt.Sprintf("ts >= $%d", len(args)))
	}
	if f.Window != nil {
		args = append(args, f.Window.Start, f.Window.End)
		where = append(where, fmt.Sprintf("ts >= $%d AND ts < $%d", len(args)-1, len(args)))
	}

	start := time.Now()
	query := fmt.Sprintf(`
SELECT id, member_id, channel_id, kind, ts FROM voice_event
WHERE %s ORDER BY ts
`, strings.Join(where, " AND "))
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveStorageRequest("voice_event_list", "voice_event", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.VoiceEvent
	for rows.Next() {
		var ev domain.VoiceEvent
		var kind string
		if err := rows.Scan(&ev.ID, &ev.MemberID, &ev.ChannelID, &kind, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Type = domain.VoiceEventType(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// InsertScores implements domain.ScoreRepo. The batch runs in one
// transaction; a duplicate (epoch, member) pair aborts and rolls back
// the whole batch.
func (p *Postgres) InsertScores(ctx context.Context, scores []domain.Score) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := p.insertScoresTx(ctx, scores)
	metrics.ObserveStorageRequest("score_insert", "score", start, err)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (p *Postgres) insertScoresTx(ctx context.Context, scores []domain.Score) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range scores {
		_, err = tx.Exec(ctx, `
INSERT INTO score (epoch, member_id, score, date_processed)
VALUES ($1, $2, $3, $4)
`, s.Epoch, s.MemberID, s.Score, s.DateProcessed)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListScores implements domain.ScoreRepo.
func (p *Postgres) ListScores(ctx context.Context, epoch int) ([]domain.Score, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT epoch, member_id, score, date_processed FROM score
WHERE epoch = $1 ORDER BY member_id
`, epoch)
	metrics.ObserveStorageRequest("score_list", "score", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Score
	for rows.Next() {
		var s domain.Score
		if err := rows.Scan(&s.Epoch, &s.MemberID, &s.Score, &s.DateProcessed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetScore implements domain.ScoreRepo.
func (p *Postgres) GetScore(ctx context.Context, epoch int, memberID string) (domain.Score, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var s domain.Score
	err := p.pool.QueryRow(ctx, `
SELECT epoch, member_id, score, date_processed FROM score
WHERE epoch = $1 AND member_id = $2
`, epoch, memberID).Scan(&s.Epoch, &s.MemberID, &s.Score, &s.DateProcessed)
	metrics.ObserveStorageRequest("score_get", "score", start, err)
	if err != nil {
		return domain.Score{}, mapRowError(err)
	}
	return s, nil
}

// HasScores implements domain.ScoreRepo.
func (p *Postgres) HasScores(ctx context.Context, memberID string) (bool, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var exists bool
	err := p.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM score WHERE member_id = $1)
`, memberID).Scan(&exists)
	metrics.ObserveStorageRequest("score_exists", "score", start, err)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func scanMember(row pgx.Row) (domain.Member, error) {
	var m domain.Member
	var nickname sql.NullString
	if err := row.Scan(&m.ID, &m.Username, &nickname, &m.Numbers, &m.Bot); err != nil {
		return domain.Member{}, err
	}
	m.Nickname = nickname.String
	return m, nil
}

func scanChannel(row pgx.Row) (domain.Channel, error) {
	var c domain.Channel
	var category sql.NullString
	var kind string
	if err := row.Scan(&c.ID, &c.Name, &category, &c.Thread, &kind); err != nil {
		return domain.Channel{}, err
	}
	c.Category = category.String
	c.Type = domain.ChannelType(kind)
	return c, nil
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	var m domain.Message
	var replyingTo sql.NullString
	var editedTS, deletedTS sql.NullTime
	err := row.Scan(&m.ID, &m.Timestamp, &m.Content, &m.Author, &replyingTo, &m.ChannelID,
		&m.Edited, &editedTS, &m.Deleted, &deletedTS, &m.Pinned)
	if err != nil {
		return domain.Message{}, err
	}
	m.ReplyingTo = replyingTo.String
	if editedTS.Valid {
		t := editedTS.Time
		m.EditedTimestamp = &t
	}
	if deletedTS.Valid {
		t := deletedTS.Time
		m.DeletedTimestamp = &t
	}
	return m, nil
}

// setClause accumulates a dynamic UPDATE ... SET list. Placeholder $1
// is reserved for the row id.
type setClause struct {
	cols []string
	vals []any
}

func newSetClause() *setClause {
	return &setClause{}
}

func (s *setClause) add(col string, v any) {
	switch val := v.(type) {
	case *string:
		if val != nil {
			s.cols = append(s.cols, col)
			s.vals = append(s.vals, *val)
		}
	case *bool:
		if val != nil {
			s.cols = append(s.cols, col)
			s.vals = append(s.vals, *val)
		}
	case *time.Time:
		if val != nil {
			s.cols = append(s.cols, col)
			s.vals = append(s.vals, *val)
		}
	}
}

func (s *setClause) empty() bool { return len(s.cols) == 0 }

func (s *setClause) sql(firstPlaceholder int) string {
	parts := make([]string, len(s.cols))
	for i, col := range s.cols {
		parts[i] = fmt.Sprintf("%s = $%d", col, firstPlaceholder+i)
	}
	return strings.Join(parts, ", ")
}

func (s *setClause) args(id string) []any {
	return append([]any{id}, s.vals...)
}
