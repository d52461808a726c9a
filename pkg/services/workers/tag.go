package workers

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"wayfinder/pkg/navigation"
	"wayfinder/pkg/shared"
	"wayfinder/pkg/tagpayload"
)

// TagWorker drains the tag-scan stream and feeds decoded, checksum-valid
// payloads to the navigation engine one at a time. It also implements
// navigation.TagReader: the engine gates scanning on and off and the
// worker drops scans while scanning is disabled, mirroring a hardware
// reader that is powered but not listening.
type TagWorker struct {
	*BaseWorker
	engine   *navigation.Engine
	scanning atomic.Bool
}

func NewTagWorker(nc *nats.Conn, js nats.JetStreamContext, engine *navigation.Engine) *TagWorker {
	return &TagWorker{
		BaseWorker: NewBaseWorker(
			"TagWorker",
			nc,
			js,
			shared.StreamTags,
			shared.ConsumerTagProcessor,
			shared.SubjectTagsAll,
		),
		engine: engine,
	}
}

// StartScanning enables delivery of scans to the engine.
func (w *TagWorker) StartScanning() error {
	w.scanning.Store(true)
	log.Printf("[%s] Scanning enabled", w.Name())
	return nil
}

// StopScanning disables delivery. The stream subscription stays open so
// restarting navigation does not race consumer re-creation.
func (w *TagWorker) StopScanning() error {
	w.scanning.Store(false)
	log.Printf("[%s] Scanning disabled", w.Name())
	return nil
}

func (w *TagWorker) Status() navigation.ReaderStatus {
	if w.nc == nil || !w.nc.IsConnected() {
		return navigation.ReaderUnknown
	}
	if !w.scanning.Load() {
		return navigation.ReaderDisabled
	}
	return navigation.ReaderAvailable
}

func (w *TagWorker) Start(ctx context.Context) error {
	return w.processMessages(ctx, func(msg *nats.Msg) error {
		if !w.scanning.Load() {
			// Scans arriving while disabled are consumed and dropped.
			return nil
		}

		payload, err := tagpayload.Decode(msg.Data)
		if err != nil {
			log.Printf("[%s] Rejected malformed payload on %s: %v", w.Name(), msg.Subject, err)
			return err
		}
		if !payload.Valid() {
			log.Printf("[%s] Rejected payload with bad checksum for location %q", w.Name(), payload.LocationID)
			return tagpayload.ErrChecksumMismatch
		}

		if err := w.engine.HandleTag(payload); err != nil {
			log.Printf("[%s] Engine rejected tag for location %q: %v", w.Name(), payload.LocationID, err)
			return err
		}

		log.Printf("[%s] Processed tag scan for location %q", w.Name(), payload.LocationID)
		return nil
	})
}
