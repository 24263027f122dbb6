package controller

import (
	"context"

	"dataset-explorer-be/pkg/explorer"

	"github.com/gofiber/fiber/v2"
)

// upstreamContext carries the caller's bearer token to the remote API.
func upstreamContext(ctx *fiber.Ctx) context.Context {
	token, _ := ctx.Locals("token").(string)
	return explorer.WithToken(ctx.UserContext(), token)
}

func userID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals("user_id").(string)
	return id
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}
