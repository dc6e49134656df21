package chat

import (
	"campusportal/internal/model"
	"campusportal/internal/realtime"
)

// mergeSnapshot folds a window snapshot into the current window.
//
// The snapshot is the newest messages of the whole collection, so any
// window message at or after the snapshot's oldest timestamp that is absent
// from it has been deleted. Older messages, brought in by paging, are kept.
func mergeSnapshot(window, snap []model.ChatMessage) []model.ChatMessage {
	if len(snap) == 0 {
		return []model.ChatMessage{}
	}
	oldest := snap[0].Timestamp
	for _, m := range snap[1:] {
		if m.Timestamp < oldest {
			oldest = m.Timestamp
		}
	}

	seen := make(map[string]struct{}, len(window)+len(snap))
	out := make([]model.ChatMessage, 0, len(window)+len(snap))
	for _, m := range snap {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	for _, m := range window {
		if m.Timestamp >= oldest {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	realtime.SortMessages(out)
	return out
}

// prependOlder adds a backward page. Only messages strictly older than the
// current oldest are taken.
func prependOlder(window, older []model.ChatMessage) ([]model.ChatMessage, int) {
	if len(window) == 0 {
		return window, 0
	}
	oldest := window[0].Timestamp
	seen := make(map[string]struct{}, len(window))
	for _, m := range window {
		seen[m.ID] = struct{}{}
	}
	add := make([]model.ChatMessage, 0, len(older))
	for _, m := range older {
		if m.Timestamp >= oldest {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		add = append(add, m)
	}
	if len(add) == 0 {
		return window, 0
	}
	realtime.SortMessages(add)
	out := make([]model.ChatMessage, 0, len(add)+len(window))
	out = append(out, add...)
	out = append(out, window...)
	return out, len(add)
}

// newest trims msgs to its n most recent entries, in ascending order.
func newest(msgs []model.ChatMessage, n int) []model.ChatMessage {
	sorted := append([]model.ChatMessage(nil), msgs...)
	realtime.SortMessages(sorted)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

func without(window []model.ChatMessage, id string) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(window))
	for _, m := range window {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
