package workers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"wayfinder/pkg/shared"
)

// EventWorker drains the navigation event stream into the catalog
// database's audit table.
type EventWorker struct {
	*BaseWorker
	db *sql.DB
}

func NewEventWorker(nc *nats.Conn, js nats.JetStreamContext, db *sql.DB) *EventWorker {
	return &EventWorker{
		BaseWorker: NewBaseWorker(
			"EventWorker",
			nc,
			js,
			shared.StreamEvents,
			shared.ConsumerEventProcessor,
			shared.SubjectEventsAll,
		),
		db: db,
	}
}

func (w *EventWorker) Start(ctx context.Context) error {
	return w.processMessages(ctx, func(msg *nats.Msg) error {
		var event shared.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("[%s] Discarding unparseable event on %s: %v", w.Name(), msg.Subject, err)
			return err
		}

		dataJSON := "{}"
		if event.Data != nil {
			if b, err := json.Marshal(event.Data); err == nil {
				dataJSON = string(b)
			}
		}

		_, err := w.db.Exec(
			`INSERT OR IGNORE INTO navigation_events (event_id, event_type, subject, data, source, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			event.ID, event.Type, event.Subject, dataJSON, event.Source,
			event.Timestamp.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}

		log.Printf("[%s] Recorded %s event %s", w.Name(), event.Type, event.ID)
		return nil
	})
}
