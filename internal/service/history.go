package service

import (
	"context"
	"time"

	"github.com/danielsotopino/api-transbank/internal/config"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/model"
	"github.com/danielsotopino/api-transbank/internal/repository"
	"github.com/danielsotopino/api-transbank/internal/validator"
	"go.uber.org/zap"
)

type HistoryService interface {
	History(ctx context.Context, query HistoryQuery) (HistoryResponse, error)
}

type history struct {
	repo      repository.HistoryRepository
	validator validator.IXValidator
	clock     Clock
	limits    config.Limits
	logger    *zap.Logger
}

func NewHistoryService(repo repository.HistoryRepository, validator validator.IXValidator, clock Clock,
	cfg *config.Config, logger *zap.Logger) HistoryService {
	return &history{repo: repo, validator: validator, clock: clock, limits: cfg.Limits, logger: logger}
}

// History pages through the local store only. Pass the returned as_of back
// to keep later pages on the same snapshot.
func (h *history) History(ctx context.Context, query HistoryQuery) (HistoryResponse, error) {
	repoQuery, page, err := h.buildQuery(query)
	if err != nil {
		return HistoryResponse{}, err
	}

	transactions, total, err := h.repo.Search(ctx, repoQuery)
	if err != nil {
		h.logger.Error("Failed to search transaction history",
			zap.String("username", query.Username),
			zap.Error(err))
		return HistoryResponse{}, NewServiceError(constants.ErrCodeDatabaseError, err)
	}

	items := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		items = append(items, toTransactionResponse(&transactions[i]))
	}

	return HistoryResponse{
		Transactions: items,
		Page:         page,
		Limit:        repoQuery.Limit,
		Total:        total,
		TotalPages:   totalPages(total, repoQuery.Limit),
		AsOf:         repoQuery.AsOf,
	}, nil
}

func (h *history) buildQuery(query HistoryQuery) (repository.HistoryQuery, int, error) {
	if err := h.validator.Validate(query); err != nil {
		return repository.HistoryQuery{}, 0, validationError(err)
	}

	limit := query.Limit
	if limit == 0 {
		limit = h.limits.HistoryDefaultLimit
	}
	if limit > h.limits.HistoryMaxLimit {
		return repository.HistoryQuery{}, 0, validationError(ErrLimitTooLarge)
	}

	page := query.Page
	if page == 0 {
		page = 1
	}

	repoQuery := repository.HistoryQuery{
		Username: query.Username,
		AsOf:     h.clock.Now(),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	if query.AsOf != "" {
		asOf, _ := time.Parse(time.RFC3339, query.AsOf)
		repoQuery.AsOf = asOf.UTC()
	}

	if query.From != "" {
		from, _ := time.Parse(validator.DateLayout, query.From)
		repoQuery.From = &from
	}

	if query.To != "" {
		to, _ := time.Parse(validator.DateLayout, query.To)
		repoQuery.To = &to
	}

	if repoQuery.From != nil && repoQuery.To != nil && repoQuery.From.After(*repoQuery.To) {
		return repository.HistoryQuery{}, 0, validationError(ErrDateRange)
	}

	if query.Status != "" {
		status := model.TransactionStatus(query.Status)
		repoQuery.Status = &status
	}

	return repoQuery, page, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}

	return int((total + int64(limit) - 1) / int64(limit))
}
