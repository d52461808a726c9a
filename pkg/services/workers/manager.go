package workers

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/nats-io/nats.go"

	"wayfinder/pkg/navigation"
	embeddednats "wayfinder/pkg/services/embedded-nats"
)

type Manager struct {
	workers   []Worker
	tagWorker *TagWorker
	nc        *nats.Conn
	js        nats.JetStreamContext
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewManager(natsClient *embeddednats.EmbeddedNATS, db *sql.DB, engine *navigation.Engine) (*Manager, error) {
	nc := natsClient.Connection()
	if nc == nil {
		return nil, fmt.Errorf("NATS connection not initialized")
	}

	js := natsClient.JetStream()
	if js == nil {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())

	tagWorker := NewTagWorker(nc, js, engine)

	return &Manager{
		nc:        nc,
		js:        js,
		ctx:       ctx,
		cancel:    cancel,
		tagWorker: tagWorker,
		workers: []Worker{
			tagWorker,
			NewEventWorker(nc, js, db),
		},
	}, nil
}

// TagReader exposes the tag worker as the engine's scanning transport.
func (m *Manager) TagReader() navigation.TagReader {
	return m.tagWorker
}

func (m *Manager) Start() error {
	log.Println("Starting NATS workers...")

	for _, worker := range m.workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()

			log.Printf("Starting worker: %s", w.Name())
			if err := w.Start(m.ctx); err != nil && err != context.Canceled {
				log.Printf("Worker %s error: %v", w.Name(), err)
			}
			log.Printf("Worker %s stopped", w.Name())
		}(worker)
	}

	log.Printf("Started %d workers", len(m.workers))
	return nil
}

func (m *Manager) Stop() error {
	log.Println("Stopping NATS workers...")

	m.cancel()

	for _, worker := range m.workers {
		if err := worker.Stop(); err != nil {
			log.Printf("Error stopping worker %s: %v", worker.Name(), err)
		}
	}

	m.wg.Wait()

	log.Println("All workers stopped")
	return nil
}
