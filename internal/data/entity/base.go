package entity

import (
	"time"

	"github.com/google/uuid"
)

// BaseNoDelete is embedded by rows that change over time but are never removed.
type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewBase stamps a fresh id with both timestamps at now.
func NewBase(now time.Time) BaseNoDelete {
	return BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseSimple is embedded by write-once rows such as booking line items.
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

func NewBaseSimple(now time.Time) BaseSimple {
	return BaseSimple{ID: uuid.New(), CreatedAt: now}
}
