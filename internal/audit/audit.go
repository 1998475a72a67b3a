// Package audit appends immutable before/after records of every mutating
// action to the logs table. Records are written synchronously after the
// business commit, so per-entity ordering follows commit order, but a
// logging failure never rolls back or negates the committed business result.
package audit

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tomasen/realip"

	"github.com/deolamide/wallex/internal/models"
)

type LogStore interface {
	Insert(log *models.Log) (*models.Log, error)
}

// RequestMeta carries the request attribution stored with each record.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		IPAddress: realip.FromRequest(r),
		UserAgent: r.UserAgent(),
	}
}

// Entry is one auditable action. OldValue/NewValue are opaque structured
// payloads; either may be nil (a freshly created record has no old value).
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	OldValue   any
	NewValue   any
	Meta       RequestMeta
}

type Recorder struct {
	logs   LogStore
	logger *slog.Logger
}

func New(logs LogStore, logger *slog.Logger) *Recorder {
	return &Recorder{
		logs:   logs,
		logger: logger,
	}
}

// Record appends one log row. The returned error is informational; callers
// that run after a successful business commit should report it and carry on.
func (rec *Recorder) Record(entry *Entry) error {
	row := &models.Log{
		Action:     entry.Action,
		EntityType: entry.EntityType,
	}

	if entry.ActorID != "" {
		row.UserID = nullString(entry.ActorID)
	}
	if entry.EntityID != "" {
		row.EntityID = nullString(entry.EntityID)
	}
	if entry.Meta.IPAddress != "" {
		row.IPAddress = nullString(entry.Meta.IPAddress)
	}
	if entry.Meta.UserAgent != "" {
		row.UserAgent = nullString(entry.Meta.UserAgent)
	}

	var err error
	if row.OldValue, err = marshalValue(entry.OldValue); err != nil {
		return err
	}
	if row.NewValue, err = marshalValue(entry.NewValue); err != nil {
		return err
	}

	if _, err := rec.logs.Insert(row); err != nil {
		rec.logger.Error("failed to append audit log",
			"action", entry.Action, "entity_type", entry.EntityType,
			"entity_id", entry.EntityID, "error", err)
		return err
	}

	return nil
}

func marshalValue(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
