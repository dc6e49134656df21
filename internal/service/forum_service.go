package service

import (
	"context"
	"fmt"
	"strings"

	"campusportal/internal/model"
	"campusportal/internal/repository"

	"github.com/rs/zerolog"
)

// ForumService defines forum operations. Writes need an authenticated identity.
type ForumService interface {
	ListTopics(ctx context.Context) ([]model.Topic, error)
	GetTopic(ctx context.Context, topicID string) (*model.Topic, error)
	ListMessages(ctx context.Context, topicID string) ([]model.TopicMessage, error)
	CreateTopic(ctx context.Context, caller model.Identity, title, description string) (*model.Topic, error)
	AddMessage(ctx context.Context, caller model.Identity, topicID, content string) (*model.TopicMessage, error)
	// DeleteTopic is allowed to the topic's creator only.
	DeleteTopic(ctx context.Context, caller model.Identity, topicID string) error
}

type forumService struct {
	repo   repository.ForumRepository
	logger zerolog.Logger
}

func NewForumService(repo repository.ForumRepository, logger zerolog.Logger) ForumService {
	return &forumService{
		repo:   repo,
		logger: logger.With().Str("service", "ForumService").Logger(),
	}
}

func (s *forumService) ListTopics(ctx context.Context) ([]model.Topic, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	return topics, nil
}

func (s *forumService) GetTopic(ctx context.Context, topicID string) (*model.Topic, error) {
	t, err := s.repo.GetTopic(ctx, topicID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return t, nil
}

func (s *forumService) ListMessages(ctx context.Context, topicID string) ([]model.TopicMessage, error) {
	if _, err := s.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.TopicMessage{}
	}
	return msgs, nil
}

func (s *forumService) CreateTopic(ctx context.Context, caller model.Identity, title, description string) (*model.Topic, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("topic title is required: %w", ErrInvalidInput)
	}
	t := &model.Topic{
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatorID:   caller.UserID,
		CreatorName: caller.Name(),
	}
	if err := s.repo.CreateTopic(ctx, t); err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("Failed to create topic")
		return nil, err
	}
	return t, nil
}

func (s *forumService) AddMessage(ctx context.Context, caller model.Identity, topicID, content string) (*model.TopicMessage, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required: %w", ErrInvalidInput)
	}
	m := &model.TopicMessage{
		TopicID:    topicID,
		Content:    content,
		AuthorID:   caller.UserID,
		AuthorName: caller.Name(),
	}
	if err := s.repo.AddMessage(ctx, m); err != nil {
		return nil, mapNotFound(err)
	}
	return m, nil
}

func (s *forumService) DeleteTopic(ctx context.Context, caller model.Identity, topicID string) error {
	if caller.UserID == "" {
		return ErrUnauthorized
	}
	t, err := s.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}
	if t.CreatorID != caller.UserID {
		return ErrForbidden
	}
	if err := s.repo.DeleteTopic(ctx, topicID); err != nil {
		s.logger.Error().Err(err).Str("topic_id", topicID).Msg("Failed to delete topic")
		return mapNotFound(err)
	}
	return nil
}
