package v1

import (
	"github.com/danielsotopino/api-transbank/internal/api/contract"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	logger       *zap.Logger
	inscriptions service.InscriptionService
	transactions service.TransactionService
	history      service.HistoryService
}

func NewHandler(logger *zap.Logger, inscriptions service.InscriptionService,
	transactions service.TransactionService, history service.HistoryService) *Handler {
	return &Handler{
		logger:       logger,
		inscriptions: inscriptions,
		transactions: transactions,
		history:      history,
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) log(c *fiber.Ctx) *zap.Logger {
	return h.logger.With(zap.String("xTrackID", contract.TrackID(c)))
}

func (h *Handler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		h.log(c).Warn("Failed to parse body",
			zap.Error(err),
			zap.String("path", c.Path()))
		return service.NewServiceError(constants.ErrCodeInvalidRequestBody, err)
	}

	return nil
}
