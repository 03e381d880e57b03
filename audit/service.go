package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/harborwell/shipstock/config"
	"github.com/harborwell/shipstock/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one completed operation to be recorded.
type Entry struct {
	TraceID   string
	EventType string
	Operator  string
	Object    string // subject identifier, e.g. inbound/claim id
	Quantity  *int
	Note      string
	Detail    interface{} // marshalled into the JSON detail column
}

// Service records audit entries asynchronously in batches. Writes are
// best-effort: a full buffer drops the entry and a failed batch write is
// logged and discarded, so auditing can never fail a business mutation.
type Service struct {
	db        *gorm.DB
	ch        chan *model.AuditLog
	stopCh    chan struct{}
	wg        sync.WaitGroup
	batchSize int
	interval  time.Duration
	logger    *zap.Logger
}

// New creates an audit Service and starts its background worker.
func New(db *gorm.DB, cfg config.AuditConfig, logger *zap.Logger) *Service {
	buf := cfg.BufferSize
	if buf <= 0 {
		buf = 1024
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	svc := &Service{
		db:        db,
		ch:        make(chan *model.AuditLog, buf),
		stopCh:    make(chan struct{}),
		batchSize: batch,
		interval:  interval,
		logger:    logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write.
func (svc *Service) Log(entry Entry) {
	var detail datatypes.JSON
	if entry.Detail != nil {
		raw, _ := json.Marshal(entry.Detail)
		detail = datatypes.JSON(raw)
	}
	record := &model.AuditLog{
		TraceID:   entry.TraceID,
		EventType: entry.EventType,
		Operator:  entry.Operator,
		Object:    entry.Object,
		Quantity:  entry.Quantity,
		Note:      entry.Note,
		Detail:    detail,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("event_type", entry.EventType))
	}
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, svc.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= svc.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
