package worker

import (
	"context"
	"errors"
	"fmt"
	"user_api/internal/user"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	errUnknownEvent   = errors.New("unknown event type")
	errMalformedEvent = errors.New("malformed event")
)

// handleEvent validates an event and records it in the audit trail. Errors
// wrapping errUnknownEvent or errMalformedEvent are never worth a retry.
func handleEvent(ctx context.Context, repo AuditRepositoryInterface, event *user.UserEvent, workerID int) error {
	switch event.Type {
	case user.EventCreated, user.EventUpdated, user.EventDeleted, user.EventSignedIn:
	default:
		return fmt.Errorf("%w: %q", errUnknownEvent, event.Type)
	}

	if _, err := uuid.Parse(event.ID); err != nil {
		return fmt.Errorf("%w: event id %q", errMalformedEvent, event.ID)
	}
	if _, err := uuid.Parse(event.UserID); err != nil {
		return fmt.Errorf("%w: user id %q", errMalformedEvent, event.UserID)
	}
	if event.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing occurred_at", errMalformedEvent)
	}

	logrus.WithFields(logrus.Fields{
		"worker":     workerID,
		"event_id":   event.ID,
		"event_type": event.Type,
		"user_id":    event.UserID,
	}).Debug("Recording user event")

	return repo.Record(ctx, event)
}

func permanent(err error) bool {
	return errors.Is(err, errUnknownEvent) || errors.Is(err, errMalformedEvent)
}
