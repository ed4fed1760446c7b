// Package audit records who did what, after the fact. Recording is
// best-effort and asynchronous: a failed audit write never fails or
// delays the business operation it describes.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vaidehip0407/SKOPE-ERP/internal/domain"
)

type Writer interface {
	CreateAuditEntry(ctx context.Context, entry domain.AuditEntry) error
}

type Sink struct {
	writer  Writer
	entries chan domain.AuditEntry
	done    chan struct{}
	once    sync.Once
}

const (
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second
	maxAttempts   = 3
)

func NewSink(writer Writer) *Sink {
	s := &Sink{
		writer:  writer,
		entries: make(chan domain.AuditEntry, defaultBuffer),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Record queues an audit entry. It never blocks: when the buffer is full
// the entry is dropped and counted against the log rather than stalling
// a sale.
func (s *Sink) Record(actorID, action, entityType, entityID, detail string) {
	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	select {
	case s.entries <- entry:
	default:
		log.Printf("[audit] buffer full, dropping entry action=%s entity=%s/%s", action, entityType, entityID)
	}
}

func (s *Sink) run() {
	defer close(s.done)
	for entry := range s.entries {
		s.write(entry)
	}
}

func (s *Sink) write(entry domain.AuditEntry) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = s.writer.CreateAuditEntry(ctx, entry)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	log.Printf("[audit] giving up on entry action=%s entity=%s/%s: %v",
		entry.Action, entry.EntityType, entry.EntityID, err)
}

// Close stops accepting entries and waits for the queue to drain.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.entries)
	})
	<-s.done
}
