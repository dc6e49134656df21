package repository

import (
	"context"
	"fmt"

	"campusportal/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ForumRepository defines the interface for forum topics and their messages.
// Lookups of a missing topic return an error wrapping pgx.ErrNoRows.
type ForumRepository interface {
	ListTopics(ctx context.Context) ([]model.Topic, error)
	GetTopic(ctx context.Context, topicID string) (*model.Topic, error)
	CreateTopic(ctx context.Context, t *model.Topic) error
	// DeleteTopic removes the topic and all of its messages atomically.
	DeleteTopic(ctx context.Context, topicID string) error
	ListMessages(ctx context.Context, topicID string) ([]model.TopicMessage, error)
	// AddMessage inserts the message and bumps the topic's message count atomically.
	AddMessage(ctx context.Context, m *model.TopicMessage) error
}

type forumRepo struct {
	pool *pgxpool.Pool
}

func NewForumRepo(pool *pgxpool.Pool) ForumRepository {
	return &forumRepo{pool: pool}
}

const topicColumns = `id::text AS id, title, description, creator_id, creator_name, messages_count, created_at`

func (r *forumRepo) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+topicColumns+` FROM forum_topics ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	topics, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Topic])
	if err != nil {
		return nil, fmt.Errorf("scanning topics: %w", err)
	}
	return topics, nil
}

func (r *forumRepo) GetTopic(ctx context.Context, topicID string) (*model.Topic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+topicColumns+` FROM forum_topics WHERE id::text = $1`, topicID)
	if err != nil {
		return nil, fmt.Errorf("getting topic %s: %w", topicID, err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Topic])
	if err != nil {
		return nil, fmt.Errorf("getting topic %s: %w", topicID, err)
	}
	return t, nil
}

func (r *forumRepo) CreateTopic(ctx context.Context, t *model.Topic) error {
	const q = `
		INSERT INTO forum_topics (title, description, creator_id, creator_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, messages_count, created_at
	`
	if err := r.pool.QueryRow(ctx, q, t.Title, t.Description, t.CreatorID, t.CreatorName).
		Scan(&t.ID, &t.MessagesCount, &t.CreatedAt); err != nil {
		return fmt.Errorf("creating topic: %w", err)
	}
	return nil
}

func (r *forumRepo) DeleteTopic(ctx context.Context, topicID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for topic delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM forum_messages WHERE topic_id::text = $1`, topicID); err != nil {
		return fmt.Errorf("deleting messages of topic %s: %w", topicID, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM forum_topics WHERE id::text = $1`, topicID)
	if err != nil {
		return fmt.Errorf("deleting topic %s: %w", topicID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting topic %s: %w", topicID, pgx.ErrNoRows)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing topic delete %s: %w", topicID, err)
	}
	return nil
}

func (r *forumRepo) ListMessages(ctx context.Context, topicID string) ([]model.TopicMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text AS id, topic_id::text AS topic_id, content, author_id, author_name, created_at
		FROM forum_messages
		WHERE topic_id::text = $1
		ORDER BY created_at ASC
	`, topicID)
	if err != nil {
		return nil, fmt.Errorf("listing messages of topic %s: %w", topicID, err)
	}
	msgs, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.TopicMessage])
	if err != nil {
		return nil, fmt.Errorf("scanning messages of topic %s: %w", topicID, err)
	}
	return msgs, nil
}

func (r *forumRepo) AddMessage(ctx context.Context, m *model.TopicMessage) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting transaction for topic message: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `UPDATE forum_topics SET messages_count = messages_count + 1 WHERE id::text = $1`, m.TopicID)
	if err != nil {
		return fmt.Errorf("incrementing message count of topic %s: %w", m.TopicID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adding message to topic %s: %w", m.TopicID, pgx.ErrNoRows)
	}
	const q = `
		INSERT INTO forum_messages (topic_id, content, author_id, author_name)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING id::text, created_at
	`
	if err := tx.QueryRow(ctx, q, m.TopicID, m.Content, m.AuthorID, m.AuthorName).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("inserting message into topic %s: %w", m.TopicID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing topic message %s: %w", m.TopicID, err)
	}
	return nil
}
