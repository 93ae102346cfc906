package orchestrator

import (
	"context"
	"time"

	"github.com/josephinoo/agent-bg/internal/models"
)

// Store persists conversations. SaveState must upsert on SessionID.
// LoadState returns nil, nil when no conversation exists for the key.
type Store interface {
	LoadState(ctx context.Context, sessionKey string) (*models.ConversationState, error)
	SaveState(ctx context.Context, state *models.ConversationState) error
	AppendMessage(ctx context.Context, sessionID string, role models.Role, text string, step models.Step) (string, error)
	SaveLead(ctx context.Context, state *models.ConversationState) (string, error)
}

// Generator produces a response from a system and a user prompt. Implementations
// are expected to honour ctx cancellation.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LeadSink receives every lead after it is persisted.
type LeadSink interface {
	Publish(ctx context.Context, lead *models.Lead) error
}

// ContactDirectory resolves which campaign a contact address belongs to.
// LookupContact returns nil, nil when the address is not in an active campaign.
type ContactDirectory interface {
	LookupContact(ctx context.Context, phone string) (*models.Contact, error)
	UpsertContact(ctx context.Context, contact *models.Contact) error
}

type TranscriptIndexer interface {
	IndexTurn(ctx context.Context, entry models.TranscriptEntry) error
}

// Locker serializes work on one session key. The returned func releases the lock.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// TurnRecorder receives per-turn telemetry.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, step, status string, duration time.Duration)
	RecordLead(ctx context.Context, product string)
}
