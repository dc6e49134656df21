package dto

import "campusportal/internal/model"

type ChatMessageCreateDTO struct {
	Text string `json:"text" validate:"required,max=500"`
}

type ChatHistoryResponseDTO struct {
	Messages []model.ChatMessage `json:"messages"`
	// Before is the cursor for the next older page; 0 when there is nothing older.
	Before int64 `json:"before"`
}
