package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/turbekoff/fracbot/pkg/calculator"
	"github.com/turbekoff/fracbot/pkg/fraction"
)

type sessionResponse struct {
	ID string `json:"id"`
	SessionState
}

type precisionRequest struct {
	Precision *uint `json:"precision"`
}

// maxKeys bounds a single key request.
const maxKeys = 256

type keysRequest struct {
	Keys []string `json:"keys"`
}

type evaluateStep struct {
	Op      string `json:"op"`
	Operand string `json:"operand,omitempty"`
}

type evaluateRequest struct {
	Operand   string         `json:"operand"`
	Steps     []evaluateStep `json:"steps"`
	Precision *uint          `json:"precision"`
}

type evaluateResponse struct {
	Result    string            `json:"result"`
	Exact     fraction.Fraction `json:"exact"`
	Precision uint              `json:"precision"`
}

// API serves calculator sessions over HTTP. Sessions share the store with
// the Telegram bot and expire the same way.
type API struct {
	app      *fiber.App
	sessions *Memcached[*Session]
	config   *Config
	logger   *log.Logger
}

func NewAPI(config *Config, sessions *Memcached[*Session], logger *log.Logger) *API {
	a := &API{
		sessions: sessions,
		config:   config,
		logger:   logger,
	}

	a.app = fiber.New(fiber.Config{
		AppName:               "fracbot",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	a.app.Use(recover.New())
	a.app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: logger.Writer(),
	}))
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"sessions": a.sessions.Len(),
		})
	})

	v1 := a.app.Group("/api/v1")
	v1.Post("/evaluate", a.evaluate)

	sessions := v1.Group("/sessions")
	sessions.Post("", a.createSession)
	sessions.Get("/:id", a.getSession)
	sessions.Post("/:id/keys", a.pressKeys)
	sessions.Put("/:id/precision", a.setPrecision)
	sessions.Delete("/:id", a.deleteSession)
}

// Run serves until Shutdown is called.
func (a *API) Run() error {
	return a.app.Listen(a.config.HTTP.Addr)
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func errorJSON(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{"error": message})
}

func (a *API) precision(requested *uint) (uint, error) {
	if requested == nil {
		return a.config.Precision, nil
	}
	if *requested > a.config.MaxPrecision {
		return 0, ErrPrecisionRange
	}
	return *requested, nil
}

func (a *API) lookup(c *fiber.Ctx) (*Session, bool) {
	return a.sessions.Get(c.Params("id"))
}

func (a *API) createSession(c *fiber.Ctx) error {
	var req precisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	precision, err := a.precision(req.Precision)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	id := uuid.NewString()
	session := NewSession(precision, a.config.MaxPrecision, a.logger)
	if !a.sessions.Set(id, session) {
		return errorJSON(c, fiber.StatusServiceUnavailable, "shutting down")
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse{
		ID:           id,
		SessionState: session.State(),
	})
}

func (a *API) getSession(c *fiber.Ctx) error {
	session, ok := a.lookup(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, ErrSessionExpired.Error())
	}
	return c.JSON(sessionResponse{ID: c.Params("id"), SessionState: session.State()})
}

func (a *API) pressKeys(c *fiber.Ctx) error {
	session, ok := a.lookup(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, ErrSessionExpired.Error())
	}

	var req keysRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Keys) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "keys are required")
	}
	if len(req.Keys) > maxKeys {
		return errorJSON(c, fiber.StatusBadRequest, fmt.Sprintf("too many keys, at most %d", maxKeys))
	}

	err := session.PressAll(req.Keys)
	a.sessions.Set(c.Params("id"), session)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(sessionResponse{ID: c.Params("id"), SessionState: session.State()})
}

func (a *API) setPrecision(c *fiber.Ctx) error {
	session, ok := a.lookup(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, ErrSessionExpired.Error())
	}

	var req precisionRequest
	if err := c.BodyParser(&req); err != nil || req.Precision == nil {
		return errorJSON(c, fiber.StatusBadRequest, "precision is required")
	}
	if err := session.SetPrecision(*req.Precision); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	a.sessions.Set(c.Params("id"), session)
	return c.JSON(sessionResponse{ID: c.Params("id"), SessionState: session.State()})
}

func (a *API) deleteSession(c *fiber.Ctx) error {
	if !a.sessions.Delete(c.Params("id")) {
		return errorJSON(c, fiber.StatusNotFound, ErrSessionExpired.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// evaluate folds a whole calculation in one request without a session.
func (a *API) evaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	precision, err := a.precision(req.Precision)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	calc, err := buildCalculation(req, precision, a.logger)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := calc.Result()
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	return c.JSON(evaluateResponse{
		Result:    result.Text(precision),
		Exact:     result,
		Precision: precision,
	})
}

func buildCalculation(req evaluateRequest, precision uint, logger *log.Logger) (*calculator.Calculation, error) {
	operand, err := parseOperand(req.Operand)
	if err != nil {
		return nil, err
	}

	calc := calculator.NewCalculation(
		calculator.WithPrecision(precision),
		calculator.WithLogger(logger),
	)
	calc.AddOperation(calculator.NewOperand(calculator.None, operand))

	for i, step := range req.Steps {
		op, err := calculator.ParseOperation(step.Op)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if op == calculator.None {
			return nil, fmt.Errorf("step %d: %s is only allowed as the first entry: %w", i, op, calculator.ErrInvalidArgument)
		}

		var value fraction.Fraction
		if op.HasOperand() {
			if value, err = parseOperand(step.Operand); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
		}
		calc.AddOperation(calculator.NewEntry(op, value))
	}
	return calc, nil
}

// parseOperand accepts decimals and the exact "n/d" form.
func parseOperand(text string) (fraction.Fraction, error) {
	var f fraction.Fraction
	err := f.UnmarshalText([]byte(text))
	return f, err
}
