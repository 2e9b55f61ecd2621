package services

import (
	"context"

	"checklist/internal/events"
	"checklist/internal/models"
	"checklist/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
)

// Publisher is the part of the event bus the services need.
type Publisher interface {
	Publish(channel events.Channel, event events.Event) error
}

// AuditRecorder persists audit entries once the business change has committed.
type AuditRecorder interface {
	Record(ctx context.Context, entries ...models.ChecklistLog)
}

// AuditSink writes audit entries on the base connection and broadcasts them.
// Failures are logged and swallowed; the audited change is already durable.
type AuditSink struct {
	tx        Transactor
	logRepo   repositories.ChecklistLogRepository
	publisher Publisher
	log       logger.Logger
}

func NewAuditSink(
	tx Transactor,
	logRepo repositories.ChecklistLogRepository,
	publisher Publisher,
) *AuditSink {
	return &AuditSink{
		tx:        tx,
		logRepo:   logRepo,
		publisher: publisher,
		log:       logger.New("AuditSink"),
	}
}

func (s *AuditSink) Record(ctx context.Context, entries ...models.ChecklistLog) {
	log := s.log.TraceFromContext(ctx).Function("Record")

	for i := range entries {
		entry := &entries[i]
		if entry.ActorEmployeeID == "" {
			entry.SetActor(nil)
		}
		if entry.Detail == "" {
			entry.Detail = entry.Describe()
		}

		if err := s.logRepo.Create(ctx, s.tx.DB(ctx), entry); err != nil {
			log.Warn(
				"failed to persist audit entry",
				"activity", entry.Activity,
				"entityType", entry.EntityType,
				"entityID", entry.EntityID,
				"error", err,
			)
			continue
		}

		s.publish(ctx, entry)
	}
}

func (s *AuditSink) publish(ctx context.Context, entry *models.ChecklistLog) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(events.AUDIT_CHANNEL, events.Event{
		Type:            events.AUDIT_RECORDED,
		ActorEmployeeID: entry.ActorEmployeeID,
		Data: map[string]any{
			"id":                entry.ID,
			"checklistMasterId": entry.ChecklistMasterID,
			"entityType":        entry.EntityType,
			"entityId":          entry.EntityID,
			"activity":          entry.Activity,
			"detail":            entry.Detail,
		},
	})
	if err != nil {
		s.log.TraceFromContext(ctx).Function("publish").Warn("failed to publish audit event", "activity", entry.Activity, "error", err)
	}
}
