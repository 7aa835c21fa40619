package repository

import (
	"context"
	"errors"

	"github.com/danielsotopino/api-transbank/internal/model"
	"gorm.io/gorm"
)

type InscriptionRepository interface {
	Create(ctx context.Context, inscription *model.Inscription) error
	GetByRegistrationToken(ctx context.Context, token string) (*model.Inscription, error)
	GetByTokenHash(ctx context.Context, username, tokenHash string) (*model.Inscription, error)
	ListActive(ctx context.Context, username string) ([]model.Inscription, error)
	UpdateFromStatus(ctx context.Context, inscription *model.Inscription, from model.InscriptionStatus) error
}

type Inscription struct {
	db *gorm.DB
}

func NewInscriptionRepository(db *gorm.DB) InscriptionRepository {
	return &Inscription{db: db}
}

func (r *Inscription) Create(ctx context.Context, inscription *model.Inscription) error {
	err := GetTx(ctx, r.db).Create(inscription).Error
	if err == nil {
		return nil
	}

	if isDuplicate(err) {
		return ErrInscriptionDuplicate
	}

	return err
}

func (r *Inscription) GetByRegistrationToken(ctx context.Context, token string) (*model.Inscription, error) {
	return r.first(GetTx(ctx, r.db).Where("registration_token = ?", token))
}

func (r *Inscription) GetByTokenHash(ctx context.Context, username, tokenHash string) (*model.Inscription, error) {
	return r.first(GetTx(ctx, r.db).Where("username = ? AND permanent_token_hash = ?", username, tokenHash))
}

func (r *Inscription) ListActive(ctx context.Context, username string) ([]model.Inscription, error) {
	var inscriptions []model.Inscription

	err := GetTx(ctx, r.db).
		Where("username = ? AND status <> ?", username, model.InscriptionStatusDeleted).
		Order("created_at DESC").
		Find(&inscriptions).Error
	if err != nil {
		return nil, err
	}

	return inscriptions, nil
}

// UpdateFromStatus persists a transition only if the stored row is still in
// the from status. A concurrent transition yields ErrNoRowsAffected.
func (r *Inscription) UpdateFromStatus(ctx context.Context, inscription *model.Inscription, from model.InscriptionStatus) error {
	result := GetTx(ctx, r.db).Model(inscription).
		Where("status = ?", from).
		Select("permanent_token", "permanent_token_hash", "masked_card_number", "card_brand",
			"authorization_code", "response_code", "status", "deleted_at", "updated_at").
		Updates(inscription)

	if result.Error != nil {
		if isDuplicate(result.Error) {
			return ErrInscriptionDuplicate
		}
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (r *Inscription) first(query *gorm.DB) (*model.Inscription, error) {
	var inscription model.Inscription

	err := query.First(&inscription).Error
	if err == nil {
		return &inscription, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInscriptionNotFound
	}

	return nil, err
}
