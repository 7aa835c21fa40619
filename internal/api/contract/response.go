package contract

import (
	"github.com/danielsotopino/api-transbank/internal/constants"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderTrackID = "X-Track-ID"
	TrackIDKey    = "xTrackID"
)

// Response is the envelope of every API answer, successful or not.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	TrackID string `json:"x_track_id"`
}

func TrackID(c *fiber.Ctx) string {
	id, _ := c.Locals(TrackIDKey).(string)
	return id
}

func Success(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Code:    constants.CodeSuccess,
		Message: message,
		Data:    data,
		TrackID: TrackID(c),
	})
}

func Failure(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(Response{
		Code:    code,
		Message: message,
		TrackID: TrackID(c),
	})
}
