package membership

import (
	"context"
	"database/sql"
	"encoding/json"

	apperrors "mergington-activities/internal/common/errors"
)

// Execer is satisfied by *database.PostgresClient.
type Execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const auditSchema = `CREATE TABLE IF NOT EXISTS audit_log (
	id BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	details JSONB,
	created_at TIMESTAMPTZ NOT NULL
)`

const auditInsert = `INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
VALUES ($1, $2, $3, $4, $5)`

// AuditSink appends one audit_log row per event. The table is write-only:
// registry state is never rebuilt from it.
type AuditSink struct {
	db Execer
}

func NewAuditSink(db Execer) *AuditSink {
	return &AuditSink{db: db}
}

func (s *AuditSink) Name() string { return "audit" }

// EnsureSchema creates audit_log if it does not exist.
func (s *AuditSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, auditSchema); err != nil {
		return apperrors.NewAuditSchemaFailedError(err)
	}
	return nil
}

func (s *AuditSink) Handle(ctx context.Context, evt Event) error {
	details, err := json.Marshal(map[string]string{
		"email":   evt.Email,
		"eventId": evt.ID,
	})
	if err != nil {
		return apperrors.NewAuditInsertFailedError(err)
	}

	_, err = s.db.Exec(ctx, auditInsert,
		string(evt.Type), "activity", evt.Activity, string(details), evt.OccurredAt)
	if err != nil {
		return apperrors.NewAuditInsertFailedError(err)
	}
	return nil
}
