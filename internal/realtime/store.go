// Package realtime is the chat message store behind the chat engine.
package realtime

import (
	"context"
	"errors"
	"sort"

	"campusportal/internal/model"
)

// ErrNotFound is returned by Remove when no message has the given id.
var ErrNotFound = errors.New("message not found")

// Query selects the newest Limit messages whose timestamp is strictly less
// than Before. Limit 0 means no limit and Before 0 means no upper bound.
type Query struct {
	Limit  int
	Before int64
}

// Snapshot is one delivery of a subscription. Messages come in no
// particular order. Err is set when the store could not evaluate the query.
type Snapshot struct {
	Messages []model.ChatMessage
	Err      error
}

// Subscription is a live query. Unsubscribe stops further deliveries and is
// safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Store is a realtime collection of chat messages.
type Store interface {
	// Subscribe delivers the current result of q to fn and then a fresh
	// snapshot after every change to the collection.
	Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error)
	Fetch(ctx context.Context, q Query) ([]model.ChatMessage, error)
	// Push stores msg under a new id and returns the id.
	Push(ctx context.Context, msg model.ChatMessage) (string, error)
	Remove(ctx context.Context, id string) error
}

// SortMessages orders messages ascending by timestamp, ties broken by id.
func SortMessages(msgs []model.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp != msgs[j].Timestamp {
			return msgs[i].Timestamp < msgs[j].Timestamp
		}
		return msgs[i].ID < msgs[j].ID
	})
}

// apply evaluates q over msgs, returning the selection in ascending order.
func apply(msgs []model.ChatMessage, q Query) []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if q.Before > 0 && m.Timestamp >= q.Before {
			continue
		}
		out = append(out, m)
	}
	SortMessages(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}
