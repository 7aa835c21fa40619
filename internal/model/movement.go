package model

import (
	"time"

	"gorm.io/gorm"
)

type MovementKind string

const (
	MovementKindCapture MovementKind = "CAPTURE"
	MovementKindRefund  MovementKind = "REFUND"
	// MovementKindRelease is a refund taken before any capture. It gives back
	// authorized balance, not captured funds.
	MovementKindRelease MovementKind = "RELEASE"
)

// DetailMovement is append only. Captured and refunded totals are sums over it.
type DetailMovement struct {
	ID                string       `gorm:"type:char(36);primaryKey;<-:create"`
	DetailID          string       `gorm:"type:char(36);not null;index;<-:create"`
	Kind              MovementKind `gorm:"type:varchar(8);not null;<-:create"`
	Amount            int64        `gorm:"not null;<-:create"`
	AuthorizationCode string       `gorm:"type:varchar(16);<-:create"`
	ResponseCode      int          `gorm:"not null;<-:create"`
	RefundType        string       `gorm:"type:varchar(16);<-:create"`
	CreatedAt         time.Time    `gorm:"<-:create"`
}

func (m *DetailMovement) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

type Ledger struct {
	Captured int64
	Refunded int64
	Released int64
}

// Refundable is what can still be returned: captured funds not yet refunded
// when any capture exists, otherwise the authorized amount not yet released.
func (l Ledger) Refundable(authorized int64) int64 {
	remaining := authorized - l.Released - l.Refunded
	if l.Captured > 0 {
		remaining = l.Captured - l.Refunded
	}

	if remaining > 0 {
		return remaining
	}

	return 0
}

// RefundKind is the movement a refund taken now is recorded as.
func (l Ledger) RefundKind() MovementKind {
	if l.Captured == 0 {
		return MovementKindRelease
	}

	return MovementKindRefund
}
