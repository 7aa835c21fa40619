package middleware

import (
	"github.com/danielsotopino/api-transbank/internal/api/contract"
	"github.com/gofiber/fiber/v2"
	"github.com/jaevor/go-nanoid"
)

const (
	trackIDLength    = 21
	maxTrackIDLength = 64
)

// TrackID reuses the caller's X-Track-ID when it looks sane and mints one
// otherwise. The id is echoed back on the response.
func TrackID() fiber.Handler {
	generate, err := nanoid.Standard(trackIDLength)
	if err != nil {
		panic(err)
	}

	return func(c *fiber.Ctx) error {
		id := c.Get(contract.HeaderTrackID)
		if id == "" || len(id) > maxTrackIDLength {
			id = generate()
		}

		c.Locals(contract.TrackIDKey, id)
		c.Set(contract.HeaderTrackID, id)

		return c.Next()
	}
}
