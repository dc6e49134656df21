package model

// ChatMessage represents a message in the public realtime chat.
// Timestamp is epoch milliseconds stamped by the sender.
type ChatMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"isAdmin"`
}
