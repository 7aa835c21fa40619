package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionStatusAuthorized TransactionStatus = "AUTHORIZED"
	TransactionStatusRejected   TransactionStatus = "REJECTED"
)

type DetailStatus string

const (
	DetailStatusApproved DetailStatus = "APPROVED"
	DetailStatusRejected DetailStatus = "REJECTED"
	DetailStatusCaptured DetailStatus = "CAPTURED"
	DetailStatusReversed DetailStatus = "REVERSED"
)

type MallTransaction struct {
	ID               string         `gorm:"type:char(36);primaryKey;<-:create"`
	Username         string         `gorm:"type:varchar(256);not null;index:idx_mall_transactions_history,priority:1;<-:create"`
	InscriptionID    string         `gorm:"type:char(36);not null;<-:create"`
	ParentBuyOrder   string         `gorm:"type:varchar(26);not null;uniqueIndex;<-:create"`
	SessionID        string         `gorm:"type:varchar(61);<-:create"`
	TotalAmount      int64          `gorm:"not null;<-:create"`
	MaskedCardNumber string         `gorm:"type:varchar(32);<-:create"`
	TransactionDate  time.Time      `gorm:"not null;index:idx_mall_transactions_history,priority:2;<-:create"`
	AccountingDate   string         `gorm:"type:varchar(8);<-:create"`
	RawResponse      datatypes.JSON `gorm:"<-:create"`
	CreatedAt        time.Time

	Details []MallTransactionDetail `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

func (t *MallTransaction) BeforeCreate(*gorm.DB) error {
	newID(&t.ID)
	return nil
}

// Status is derived from the children: the parent is rejected only when
// every child was rejected.
func (t *MallTransaction) Status() TransactionStatus {
	for _, d := range t.Details {
		if d.Status != DetailStatusRejected {
			return TransactionStatusAuthorized
		}
	}

	return TransactionStatusRejected
}

type MallTransactionDetail struct {
	ID                 string       `gorm:"type:char(36);primaryKey;<-:create"`
	TransactionID      string       `gorm:"type:char(36);not null;index;<-:create"`
	CommerceCode       string       `gorm:"type:varchar(12);not null;uniqueIndex:idx_details_commerce_buy_order,priority:1;<-:create"`
	BuyOrder           string       `gorm:"type:varchar(26);not null;uniqueIndex:idx_details_commerce_buy_order,priority:2;<-:create"`
	Amount             int64        `gorm:"not null;<-:create"`
	InstallmentsNumber int          `gorm:"not null;<-:create"`
	AuthorizationCode  string       `gorm:"type:varchar(16)"`
	PaymentTypeCode    string       `gorm:"type:varchar(4)"`
	ResponseCode       int          `gorm:"not null"`
	Status             DetailStatus `gorm:"type:varchar(16);not null"`
	Balance            int64        `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Transaction *MallTransaction `gorm:"foreignKey:TransactionID"`
}

func (d *MallTransactionDetail) BeforeCreate(*gorm.DB) error {
	newID(&d.ID)
	return nil
}

func (d *MallTransactionDetail) Capturable() bool {
	return d.Status == DetailStatusApproved && d.Balance > 0
}

func (d *MallTransactionDetail) Refundable() bool {
	return d.Status == DetailStatusApproved || d.Status == DetailStatusCaptured
}

// AfterCapture is the state once amount has been captured. The caller has
// already checked amount against the balance.
func (d *MallTransactionDetail) AfterCapture(amount int64) (DetailStatus, int64) {
	balance := d.Balance - amount
	if balance <= 0 {
		return DetailStatusCaptured, 0
	}

	return DetailStatusApproved, balance
}

// AfterRefund is the state once amount has been refunded. Refunds against an
// uncaptured authorization release balance. Refunds against captured funds
// leave the capturable balance untouched.
func (d *MallTransactionDetail) AfterRefund(ledger Ledger, amount int64) (DetailStatus, int64) {
	balance := d.Balance
	if ledger.Captured == 0 {
		balance -= amount
		if balance < 0 {
			balance = 0
		}
	}

	if ledger.Refundable(d.Amount)-amount <= 0 && balance == 0 {
		return DetailStatusReversed, 0
	}

	return d.Status, balance
}
