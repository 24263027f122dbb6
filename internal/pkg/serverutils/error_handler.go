package serverutils

import (
	"errors"

	"dataset-explorer-be/pkg/chatview"
	"dataset-explorer-be/pkg/explorer"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrNotFound is returned by services when the addressed resource does not exist for the caller.
var ErrNotFound = errors.New("resource not found")

// ErrorHandlerMiddleware turns errors returned by handlers into BaseResponse JSON.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var (
		fiberErr      *fiber.Error
		validationErr validator.ValidationErrors
	)

	switch {
	case errors.As(err, &fiberErr):
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	case errors.As(err, &validationErr):
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, validationMessage(validationErr)))
	case errors.Is(err, explorer.ErrUnauthorized):
		res := ErrorResponse(fiber.StatusUnauthorized, "Session expired")
		res.Redirect = chatview.LogoutPath
		return ctx.Status(fiber.StatusUnauthorized).JSON(res)
	case errors.Is(err, chatview.ErrBusy):
		return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, err.Error()))
	case errors.Is(err, ErrNotFound), errors.Is(err, chatview.ErrViewClosed):
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
	case errors.Is(err, chatview.ErrUnknownCollection):
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	var apiErr *explorer.APIError
	if errors.As(err, &apiErr) {
		return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, apiErr.Message))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
}
