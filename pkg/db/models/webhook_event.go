package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// WebhookEvent is the durable record of a processed (or permanently
// failed) gateway delivery. NaturalKey is the second idempotency tier:
// the Redis guard absorbs fast duplicates, a partial unique index over
// processed rows (see the pipeline migration) survives cache eviction
// and restarts. Failed rows are superseded by a later retry that
// succeeds, so they never claim the key.
type WebhookEvent struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Gateway    enums.Gateway        `gorm:"column:gateway;type:text;not null"`
	EventType  string               `gorm:"column:event_type;type:text;not null"`
	NaturalKey string               `gorm:"column:natural_key;type:text;not null;index:idx_webhook_events_natural_key"`
	OrderID    *string              `gorm:"column:order_id;type:text;index"`
	Payload    json.RawMessage      `gorm:"column:payload;type:jsonb"`
	Outcome    enums.WebhookOutcome `gorm:"column:outcome;type:text;not null"`
	Error      *string              `gorm:"column:error;type:text"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
