package model

import "time"

// Topic represents a forum discussion thread
type Topic struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	CreatorID     string    `db:"creator_id" json:"creator_id"`
	CreatorName   string    `db:"creator_name" json:"creator_name"`
	MessagesCount int       `db:"messages_count" json:"messages_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TopicMessage represents a reply posted to a forum topic
type TopicMessage struct {
	ID         string    `db:"id" json:"id"`
	TopicID    string    `db:"topic_id" json:"topic_id"`
	Content    string    `db:"content" json:"content"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
