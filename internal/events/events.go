// Package events publishes domain events after their transaction commits.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	TypeContestJoined   = "contest.joined"
	TypeBalanceAdjusted = "balance.adjusted"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type ContestJoined struct {
	ContestID      string   `json:"contest_id"`
	RegistrationID string   `json:"registration_id"`
	AccountID      string   `json:"account_id"`
	EntryFee       int64    `json:"entry_fee"`
	ExternalIDs    []string `json:"external_ids"`
}

type BalanceAdjusted struct {
	AccountID string `json:"account_id"`
	Direction string `json:"direction"`
	Amount    int64  `json:"amount"`
	Balance   int64  `json:"balance"`
	Reason    string `json:"reason"`
	ActorID   string `json:"actor_id"`
}

// Publisher must not block the caller on broker I/O for long; failures are
// logged by the implementation and never roll back the originating write.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}
