package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReadingSample is one probe observation captured during a health check run.
type ReadingSample struct {
	Time      time.Time
	ProbeID   string
	Name      string
	Value     decimal.Decimal
	Status    string
	Error     *string
	CreatedAt time.Time
}

// AlertEvent records a raised or cleared transition for auditing.
type AlertEvent struct {
	ID         int64
	Time       time.Time
	AlertKey   string
	Transition string
	Value      decimal.Decimal
	Limit      decimal.Decimal
	CreatedAt  time.Time
}
