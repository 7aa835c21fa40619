package v1

import (
	"github.com/danielsotopino/api-transbank/internal/api/contract"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const tbkTokenParam = "TBK_TOKEN"

func (h *Handler) StartInscription(c *fiber.Ctx) error {
	var request StartInscriptionRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	resp, err := h.inscriptions.Start(c.UserContext(), service.StartInscriptionCommand{
		Username:    request.Username,
		Email:       request.Email,
		ResponseURL: request.ResponseURL,
	})
	if err != nil {
		h.log(c).Warn("Failed to start inscription",
			zap.Error(err),
			zap.String("username", request.Username))
		return err
	}

	h.log(c).Info("Inscription started", zap.String("username", request.Username))

	return contract.Success(c, fiber.StatusCreated, constants.MsgInscriptionStarted, resp)
}

func (h *Handler) FinishInscription(c *fiber.Ctx) error {
	var request FinishInscriptionRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	return h.finish(c, request.Token)
}

// InscriptionResult is the return URL the gateway redirects the cardholder to.
func (h *Handler) InscriptionResult(c *fiber.Ctx) error {
	token := c.Query(tbkTokenParam)
	if token == "" {
		token = c.FormValue(tbkTokenParam)
	}

	return h.finish(c, token)
}

func (h *Handler) finish(c *fiber.Ctx, token string) error {
	resp, err := h.inscriptions.Finish(c.UserContext(), service.FinishInscriptionCommand{Token: token})
	if err != nil {
		h.log(c).Warn("Failed to finish inscription", zap.Error(err))
		return err
	}

	h.log(c).Info("Inscription finished",
		zap.String("status", resp.Status),
		zap.Int("responseCode", resp.ResponseCode))

	return contract.Success(c, fiber.StatusOK, constants.MsgInscriptionFinished, resp)
}

func (h *Handler) DeleteInscription(c *fiber.Ctx) error {
	var request DeleteInscriptionRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	resp, err := h.inscriptions.Delete(c.UserContext(), service.DeleteInscriptionCommand{
		Username: request.Username,
		TbkUser:  request.TbkUser,
	})
	if err != nil {
		h.log(c).Warn("Failed to delete inscription",
			zap.Error(err),
			zap.String("username", request.Username))
		return err
	}

	h.log(c).Info("Inscription deleted", zap.String("username", request.Username))

	return contract.Success(c, fiber.StatusOK, constants.MsgInscriptionDeleted, resp)
}

func (h *Handler) ListInscriptions(c *fiber.Ctx) error {
	username := c.Params("username")

	resp, err := h.inscriptions.List(c.UserContext(), service.ListInscriptionsQuery{Username: username})
	if err != nil {
		h.log(c).Warn("Failed to list inscriptions",
			zap.Error(err),
			zap.String("username", username))
		return err
	}

	return contract.Success(c, fiber.StatusOK, constants.MsgInscriptionsListed, resp)
}
