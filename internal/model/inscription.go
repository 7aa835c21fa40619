package model

import (
	"time"

	"gorm.io/gorm"
)

type InscriptionStatus string

const (
	InscriptionStatusPending   InscriptionStatus = "PENDING"
	InscriptionStatusCompleted InscriptionStatus = "COMPLETED"
	InscriptionStatusFailed    InscriptionStatus = "FAILED"
	InscriptionStatusDeleted   InscriptionStatus = "DELETED"
)

type Inscription struct {
	ID                 string            `gorm:"type:char(36);primaryKey;<-:create"`
	Username           string            `gorm:"type:varchar(256);not null;index:idx_inscriptions_username;<-:create"`
	Email              string            `gorm:"type:varchar(320);not null;<-:create"`
	RegistrationToken  string            `gorm:"type:varchar(128);not null;uniqueIndex;<-:create"`
	URLWebpay          string            `gorm:"column:url_webpay;type:varchar(512);not null;<-:create"`
	PermanentToken     *string           `gorm:"type:text"`
	PermanentTokenHash *string           `gorm:"type:char(64);uniqueIndex"`
	MaskedCardNumber   *string           `gorm:"type:varchar(32)"`
	CardBrand          *string           `gorm:"type:varchar(32)"`
	AuthorizationCode  *string           `gorm:"type:varchar(16)"`
	ResponseCode       *int              `gorm:"column:response_code"`
	Status             InscriptionStatus `gorm:"type:varchar(16);not null"`
	ExpiresAt          time.Time         `gorm:"not null;<-:create"`
	DeletedAt          *time.Time        `gorm:"column:deleted_at"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (i *Inscription) BeforeCreate(*gorm.DB) error {
	newID(&i.ID)
	return nil
}

// Presence is either Active or Deleted. Read it through Inscription.Presence.
type Presence interface {
	isPresence()
}

type Active struct{}

type Deleted struct {
	At time.Time
}

func (Active) isPresence()  {}
func (Deleted) isPresence() {}

func (i *Inscription) Presence() Presence {
	if i.Status == InscriptionStatusDeleted && i.DeletedAt != nil {
		return Deleted{At: *i.DeletedAt}
	}
	return Active{}
}

// Expired only applies to inscriptions still waiting for finish.
func (i *Inscription) Expired(now time.Time) bool {
	return i.Status == InscriptionStatusPending && now.After(i.ExpiresAt)
}

func (i *Inscription) Terminal() bool {
	return i.Status != InscriptionStatusPending
}

type CardEnrollment struct {
	EncryptedToken    string
	TokenHash         string
	MaskedCardNumber  string
	CardBrand         string
	AuthorizationCode string
	ResponseCode      int
}

func (i *Inscription) Complete(enrollment CardEnrollment) error {
	if i.Status != InscriptionStatusPending {
		return ErrInvalidTransition
	}

	i.Status = InscriptionStatusCompleted
	i.PermanentToken = &enrollment.EncryptedToken
	i.PermanentTokenHash = &enrollment.TokenHash
	i.MaskedCardNumber = &enrollment.MaskedCardNumber
	i.CardBrand = &enrollment.CardBrand
	i.AuthorizationCode = &enrollment.AuthorizationCode
	i.ResponseCode = &enrollment.ResponseCode

	return nil
}

func (i *Inscription) Fail(responseCode int) error {
	if i.Status != InscriptionStatusPending {
		return ErrInvalidTransition
	}

	i.Status = InscriptionStatusFailed
	i.ResponseCode = &responseCode

	return nil
}

// MarkDeleted keeps the encrypted token and fingerprint so a repeated delete
// can still be resolved to this row.
func (i *Inscription) MarkDeleted(at time.Time) error {
	if i.Status != InscriptionStatusCompleted {
		return ErrInvalidTransition
	}

	i.Status = InscriptionStatusDeleted
	i.DeletedAt = &at

	return nil
}
