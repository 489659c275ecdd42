package api

import (
	"errors"
	"log/slog"
	"net/http"

	"coinvert/internals/core/domain"
	"coinvert/internals/format"
	"coinvert/internals/history"
	"coinvert/internals/refdata"
	"coinvert/internals/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	converter service.ConverterService
	tables    *refdata.Tables
	validate  *validator.Validate
}

func NewHandler(cs service.ConverterService, tables *refdata.Tables) *Handler {
	return &Handler{
		converter: cs,
		tables:    tables,
		validate:  validator.New(),
	}
}

type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorHandler maps service sentinels onto HTTP statuses: validation
// failures are the caller's fault, unknown codes are not found, provider
// trouble is a bad gateway.
func ErrorHandler(c *fiber.Ctx, err error) error {
	slog.Warn("request failed", "path", c.Path(), "error", err)

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	switch {
	case errors.As(err, &e):
		code = e.Code
		message = e.Message
	case errors.Is(err, service.ErrSelectionIncomplete),
		errors.Is(err, service.ErrSameCurrency),
		errors.Is(err, service.ErrInvalidAmount):
		code = fiber.StatusBadRequest
		message = err.Error()
	case errors.Is(err, service.ErrCurrencyNotSupported):
		code = fiber.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrQuoteUnavailable):
		code = fiber.StatusBadGateway
		message = err.Error()
	}

	return c.Status(code).JSON(ErrorResponse{
		Error: struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}{
			Code:    http.StatusText(code),
			Message: message,
		},
	})
}

type catalogResponse struct {
	Entries []domain.CurrencyEntry `json:"entries"`
	Count   int                    `json:"count"`
}

func (h *Handler) GetCatalog(c *fiber.Ctx) error {
	cat := h.converter.Catalog()
	return c.JSON(catalogResponse{Entries: cat.Entries(), Count: cat.Len()})
}

func (h *Handler) Search(c *fiber.Ctx) error {
	return c.JSON(h.converter.Search(c.Query("q")))
}

func (h *Handler) GetPopular(c *fiber.Ctx) error {
	return c.JSON(h.converter.Popular())
}

type convertQuery struct {
	From   string  `query:"from" validate:"required,min=1,max=12"`
	To     string  `query:"to" validate:"required,min=1,max=12"`
	Amount float64 `query:"amount" validate:"required,gt=0"`
}

type displayStrings struct {
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	Rate      string `json:"rate"`
}

type convertResponse struct {
	domain.ConversionResult
	Display displayStrings `json:"display"`
}

func (h *Handler) Convert(c *fiber.Ctx) error {
	var q convertQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "from, to, and amount query parameters are required")
	}
	if err := h.validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "from and to are required and amount must be a positive number")
	}

	from, err := h.converter.ResolveCode(q.From)
	if err != nil {
		return err
	}
	to, err := h.converter.ResolveCode(q.To)
	if err != nil {
		return err
	}

	result, err := h.converter.Convert(c.Context(), domain.ConversionRequest{
		From:   from.Selection(),
		To:     to.Selection(),
		Amount: q.Amount,
	})
	if err != nil {
		return err
	}

	return c.JSON(convertResponse{
		ConversionResult: *result,
		Display: displayStrings{
			AmountIn:  format.AmountFor(result.AmountIn, from.Code, from.Kind, h.tables),
			AmountOut: format.AmountFor(result.AmountOut, to.Code, to.Kind, h.tables),
			Rate:      format.Rate(result.Rate),
		},
	})
}

type historyResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
	history.Result
}

func (h *Handler) GetHistory(c *fiber.Ctx) error {
	fromCode := c.Query("from")
	toCode := c.Query("to")
	if fromCode == "" || toCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	from, err := h.converter.ResolveCode(fromCode)
	if err != nil {
		return err
	}
	to, err := h.converter.ResolveCode(toCode)
	if err != nil {
		return err
	}

	res := h.converter.History(c.Context(), from.Selection(), to.Selection())
	return c.JSON(historyResponse{From: from.Code, To: to.Code, Result: res})
}
