package command

import (
	"context"
	"time"

	"github.com/stock-chat/stock-chat/internal/domain"

	"github.com/google/uuid"
)

// Store is the durable record of issued commands and the handoff point
// between queue delivery and client polling.
type Store interface {
	// Create persists a new pending record.
	Create(ctx context.Context, record *Record) error

	// RecordAnswer transitions a pending record to answered.  It is
	// the only mutation path for the answer fields and succeeds at
	// most once per record; a missing or already answered record
	// yields ErrRecordNotFound.
	RecordAnswer(ctx context.Context, id uuid.UUID, responsePayload string, answeredAt time.Time) error

	// TakeAnswered atomically removes and returns every answered
	// record owned by the given user, oldest first.  The removal
	// happens in the same statement as the read so concurrent polls
	// cannot deliver the same record twice.
	TakeAnswered(ctx context.Context, userID domain.UserID) ([]Record, error)

	// DeleteAbandonedBefore removes records created before the cutoff
	// regardless of state.  Used by the retention job to reap records
	// whose owner never polled again.
	DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
