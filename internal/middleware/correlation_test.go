package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newCorrelatedApp() *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetCorrelationID(c))
	})
	return app
}

func TestCorrelationIDEchoesIncomingHeader(t *testing.T) {
	app := newCorrelatedApp()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "trace-12345")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "trace-12345", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDReplacesUnsafeValues(t *testing.T) {
	cases := map[string]string{
		"markup":   "<script>alert(1)</script>",
		"spaces":   "two words",
		"too long": strings.Repeat("a", 100),
	}

	for name, incoming := range cases {
		t.Run(name, func(t *testing.T) {
			app := newCorrelatedApp()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Correlation-ID", incoming)
			resp, err := app.Test(req)
			require.NoError(t, err)

			echoed := resp.Header.Get("X-Correlation-ID")
			require.NotEqual(t, incoming, echoed)
			require.NotEmpty(t, echoed)
		})
	}
}

func TestCorrelationIDGeneratesWhenAbsent(t *testing.T) {
	app := newCorrelatedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}
