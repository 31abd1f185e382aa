package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"
)

const auditBatchSize = 50

// AuditService is a fire-and-forget AuditSink that writes entries to
// audit_logs from a background goroutine. Entries are dropped when the
// buffer is full.
type AuditService struct {
	repo    *repositories.AuditLogRepository
	entries chan domain.AuditEntry
	done    chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewAuditService creates a new audit service with the given buffer size
func NewAuditService(repo *repositories.AuditLogRepository, buffer int) *AuditService {
	if buffer <= 0 {
		buffer = 256
	}
	return &AuditService{
		repo:    repo,
		entries: make(chan domain.AuditEntry, buffer),
		done:    make(chan struct{}),
	}
}

// Start launches the writer goroutine
func (s *AuditService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.run()
}

// Stop flushes buffered entries and stops the writer
func (s *AuditService) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.entries)
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// Record queues an entry without blocking
func (s *AuditService) Record(entry domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.entries <- entry:
	default:
		log.Printf("⚠️ Audit buffer full, dropped %s %s#%d", entry.Action, entry.EntityType, entry.EntityID)
	}
}

func (s *AuditService) run() {
	defer close(s.done)

	batch := make([]*models.AuditLog, 0, auditBatchSize)
	for entry := range s.entries {
		batch = append(batch, toAuditLog(entry))
	drain:
		for len(batch) < auditBatchSize {
			select {
			case next, ok := <-s.entries:
				if !ok {
					break drain
				}
				batch = append(batch, toAuditLog(next))
			default:
				break drain
			}
		}
		s.flush(batch)
		batch = batch[:0]
	}
}

func (s *AuditService) flush(batch []*models.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		log.Printf("❌ Audit write error (%d entries): %v", len(batch), err)
	}
}

func toAuditLog(entry domain.AuditEntry) *models.AuditLog {
	details, err := json.Marshal(entry.Details)
	if err != nil || entry.Details == nil {
		details = []byte("{}")
	}
	return &models.AuditLog{
		CompanyID:  entry.CompanyID,
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    details,
	}
}
