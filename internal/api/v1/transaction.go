package v1

import (
	"fmt"
	"strconv"

	"github.com/danielsotopino/api-transbank/internal/api/contract"
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/danielsotopino/api-transbank/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (h *Handler) Authorize(c *fiber.Ctx) error {
	var request AuthorizeRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	resp, err := h.transactions.Authorize(c.UserContext(), request.toCommand())
	if err != nil {
		h.log(c).Warn("Failed to authorize transaction",
			zap.Error(err),
			zap.String("username", request.Username),
			zap.String("parentBuyOrder", request.ParentBuyOrder))
		return err
	}

	h.log(c).Info("Transaction authorized",
		zap.String("parentBuyOrder", resp.ParentBuyOrder),
		zap.String("status", resp.Status),
		zap.Int("details", len(resp.Details)))

	return contract.Success(c, fiber.StatusCreated, constants.MsgTransactionAuthorize, resp)
}

func (h *Handler) Capture(c *fiber.Ctx) error {
	var request CaptureRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	resp, err := h.transactions.Capture(c.UserContext(), service.CaptureCommand{
		CommerceCode:      request.CommerceCode,
		BuyOrder:          request.BuyOrder,
		AuthorizationCode: request.AuthorizationCode,
		CaptureAmount:     request.CaptureAmount,
	})
	if err != nil {
		h.log(c).Warn("Failed to capture transaction",
			zap.Error(err),
			zap.String("commerceCode", request.CommerceCode),
			zap.String("buyOrder", request.BuyOrder))
		return err
	}

	h.log(c).Info("Transaction captured",
		zap.String("buyOrder", request.BuyOrder),
		zap.Int64("capturedAmount", resp.CapturedAmount))

	return contract.Success(c, fiber.StatusOK, constants.MsgTransactionCaptured, resp)
}

func (h *Handler) Refund(c *fiber.Ctx) error {
	var request RefundRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	resp, err := h.transactions.Refund(c.UserContext(), service.RefundCommand{
		CommerceCode: request.CommerceCode,
		BuyOrder:     request.BuyOrder,
		Amount:       request.Amount,
	})
	if err != nil {
		h.log(c).Warn("Failed to refund transaction",
			zap.Error(err),
			zap.String("commerceCode", request.CommerceCode),
			zap.String("buyOrder", request.BuyOrder))
		return err
	}

	h.log(c).Info("Transaction refunded",
		zap.String("buyOrder", request.BuyOrder),
		zap.String("reversalType", resp.ReversalType),
		zap.Int64("reversedAmount", resp.ReversedAmount))

	return contract.Success(c, fiber.StatusOK, constants.MsgTransactionRefunded, resp)
}

func (h *Handler) Status(c *fiber.Ctx) error {
	query := service.StatusQuery{
		BuyOrder:     c.Params("child_buy_order"),
		CommerceCode: c.Query("child_commerce_code"),
	}

	resp, err := h.transactions.Status(c.UserContext(), query)
	if err != nil {
		h.log(c).Warn("Failed to get transaction status",
			zap.Error(err),
			zap.String("buyOrder", query.BuyOrder),
			zap.String("commerceCode", query.CommerceCode))
		return err
	}

	return contract.Success(c, fiber.StatusOK, constants.MsgTransactionStatus, resp)
}

func (h *Handler) History(c *fiber.Ctx) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	query := service.HistoryQuery{
		Username: c.Params("username"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Status:   c.Query("status"),
		Page:     page,
		Limit:    limit,
		AsOf:     c.Query("as_of"),
	}

	resp, err := h.history.History(c.UserContext(), query)
	if err != nil {
		h.log(c).Warn("Failed to get transaction history",
			zap.Error(err),
			zap.String("username", query.Username))
		return err
	}

	return contract.Success(c, fiber.StatusOK, constants.MsgTransactionHistory, resp)
}

// queryInt reads an optional integer query parameter. Absent is zero, which
// the service resolves to its default; anything unparsable is rejected.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, service.NewServiceError(constants.ErrCodeValidationFailed,
			fmt.Errorf("%s must be an integer, got %q", key, raw))
	}

	return n, nil
}
