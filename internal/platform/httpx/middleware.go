package httpx

import (
	"strconv"
	"time"

	"github.com/corebooks/core/internal/platform/config"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

const headerCorrelationID = "X-Correlation-Id"

// WithCorrelationID stamps every request/response pair with a correlation id,
// generating one when the caller didn't supply it.
func WithCorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cid := c.Get(headerCorrelationID)
		if cid == "" {
			cid = uuid.New().String()
		}

		c.Set(headerCorrelationID, cid)
		c.Locals(headerCorrelationID, cid)

		return c.Next()
	}
}

// WithCORS enables CORS using env-configurable origins/methods/headers,
// mirroring common/net/http/withCORS.go.
func WithCORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     config.GetenvOrDefault("ACCESS_CONTROL_ALLOW_ORIGIN", "*"),
		AllowMethods:     config.GetenvOrDefault("ACCESS_CONTROL_ALLOW_METHODS", "POST,GET,OPTIONS,PUT,DELETE,PATCH"),
		AllowHeaders:     config.GetenvOrDefault("ACCESS_CONTROL_ALLOW_HEADERS", "Accept,Content-Type,Content-Length,Authorization,X-Correlation-Id"),
		AllowCredentials: true,
	})
}

// WithRecover turns a panic inside a handler into a 500 instead of killing
// the worker goroutine.
func WithRecover() fiber.Handler {
	return recover.New()
}

// WithAccessLog logs one line per request in a CLF-like shape once the
// response has been written, skipping /health.
func WithAccessLog(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		cid, _ := c.Locals(headerCorrelationID).(string)

		err := c.Next()

		logger.WithFields("correlation_id", cid).Infof(
			"%s %s %s %d %s",
			c.IP(), c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start),
		)

		return err
	}
}

// ParseUUIDParam parses the named path param as a UUID string, returning a
// 400 through c if it is not well-formed. Returns the raw string (entities
// in this codebase key on string ids, matching mmodel's uuid-as-string
// convention).
func ParseUUIDParam(c *fiber.Ctx, name string) (string, error) {
	v := c.Params(name)
	if _, err := uuid.Parse(v); err != nil {
		return "", BadRequest(c, "CB_INVALID_ID", "Bad Request", "invalid "+name, nil)
	}

	return v, nil
}

// Pagination is the common page/limit query-string contract across list
// endpoints.
type Pagination struct {
	Page  int
	Limit int
}

// ParsePagination reads ?page=&limit= with sane defaults/bounds.
func ParsePagination(c *fiber.Ctx) Pagination {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	if limit > 100 {
		limit = 100
	}

	return Pagination{Page: page, Limit: limit}
}

// Offset returns the SQL OFFSET for this page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }
