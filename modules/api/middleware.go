package api

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/example/task-tracker/domain/apperr"
	"github.com/example/task-tracker/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// identityKey stores the authenticated *auth.UserInfo in the Fiber context.
	identityKey = "identity"
	// requestIDKey is where the requestid middleware stores the request id.
	requestIDKey = "requestid"
)

// RequireAuth resolves the bearer token to an active identity. Token
// validation and the account re-check both happen in the auth module.
func RequireAuth(authPort auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return apperr.Unauthorized("Missing authentication token")
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return apperr.Unauthorized("Invalid authorization header format")
		}

		user, err := authPort.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(identityKey, user)
		return c.Next()
	}
}

// currentUser returns the identity stored by RequireAuth.
func currentUser(c *fiber.Ctx) (*auth.UserInfo, error) {
	user, ok := c.Locals(identityKey).(*auth.UserInfo)
	if !ok || user == nil {
		return nil, apperr.Unauthorized("Missing authentication token")
	}
	return user, nil
}

// RequestMetrics counts requests and final response codes.
type RequestMetrics struct {
	total atomic.Int64

	mu    sync.Mutex
	codes map[int]int64
}

// NewRequestMetrics creates an empty counter set.
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{codes: make(map[int]int64)}
}

// Handler records every request after the error handler has run, so the
// counted status is the one the client sees.
func (m *RequestMetrics) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m.total.Add(1)

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		m.mu.Lock()
		m.codes[c.Response().StatusCode()]++
		m.mu.Unlock()
		return nil
	}
}

// Snapshot returns the request total and the count per status code.
func (m *RequestMetrics) Snapshot() (int64, map[string]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	codes := make(map[string]int64, len(m.codes))
	for code, n := range m.codes {
		codes[strconv.Itoa(code)] = n
	}
	return m.total.Load(), codes
}
