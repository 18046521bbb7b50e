// Package httpx holds the Fiber middleware chain and JSON response helpers
// shared by every Corebooks HTTP surface, adapted from the common/net/http
// package.
package httpx

import "github.com/gofiber/fiber/v2"

// errorBody is the wire shape of every error response: JSON, never HTML,
// stack traces never cross the boundary.
type errorBody struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Fields  any    `json:"fields,omitempty"`
}

func send(c *fiber.Ctx, status int, code, title, message string, fields any) error {
	return c.Status(status).JSON(errorBody{Code: code, Title: title, Message: message, Fields: fields})
}

func BadRequest(c *fiber.Ctx, code, title, message string, fields any) error {
	return send(c, fiber.StatusBadRequest, code, title, message, fields)
}

func Unauthorized(c *fiber.Ctx, code, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return send(c, fiber.StatusUnauthorized, code, "Unauthorized", message, nil)
}

func Forbidden(c *fiber.Ctx, code, message string) error {
	return send(c, fiber.StatusForbidden, code, "Forbidden", message, nil)
}

func NotFound(c *fiber.Ctx, code, message string) error {
	return send(c, fiber.StatusNotFound, code, "Not Found", message, nil)
}

func Conflict(c *fiber.Ctx, code, message string) error {
	return send(c, fiber.StatusConflict, code, "Conflict", message, nil)
}

func UnprocessableEntity(c *fiber.Ctx, code, message string) error {
	return send(c, fiber.StatusUnprocessableEntity, code, "Unprocessable Entity", message, nil)
}

func ServiceUnavailable(c *fiber.Ctx, code, message string) error {
	return send(c, fiber.StatusServiceUnavailable, code, "Service Unavailable", message, nil)
}

func InternalServerError(c *fiber.Ctx, code, message string) error {
	return send(c, fiber.StatusInternalServerError, code, "Internal Server Error", message, nil)
}

// OK writes a 200 JSON response.
func OK(c *fiber.Ctx, body any) error { return c.Status(fiber.StatusOK).JSON(body) }

// Created writes a 201 JSON response.
func Created(c *fiber.Ctx, body any) error { return c.Status(fiber.StatusCreated).JSON(body) }

// NoContent writes a bare 204.
func NoContent(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
