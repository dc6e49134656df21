package dto

import (
	"campusportal/internal/catalog"
	"campusportal/internal/model"
)

// PortalCommandDTO is one client frame on the portal socket
type PortalCommandDTO struct {
	Type     string `json:"type" validate:"required"`
	Query    string `json:"query,omitempty"`
	Campus   string `json:"campus,omitempty"`
	Modality string `json:"modality,omitempty"`
	Page     int    `json:"page,omitempty"`
	View     string `json:"view,omitempty"`
	Text     string `json:"text,omitempty"`
	ID       string `json:"id,omitempty"`
}

// PortalChatDTO is the chat part of a view frame
type PortalChatDTO struct {
	Open     bool                `json:"open"`
	Loading  bool                `json:"loading"`
	Unread   int                 `json:"unread"`
	Messages []model.ChatMessage `json:"messages"`
}

// PortalViewDTO is the frame the server pushes after every change
type PortalViewDTO struct {
	Type      string                   `json:"type"`
	SessionID string                   `json:"session_id"`
	State     catalog.State            `json:"state"`
	Result    CatalogSearchResponseDTO `json:"result"`
	Campuses  []string                 `json:"campuses"`
	Chat      PortalChatDTO            `json:"chat"`
	IsAdmin   bool                     `json:"is_admin"`
	Error     string                   `json:"error,omitempty"`
}
