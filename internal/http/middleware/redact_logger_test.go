package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func lastLine(t *testing.T, s string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, s)
	}
	return m
}

func TestRedactingLogger_ScrubsQueryAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet,
		"/users/1?email=jane@example.com&phone=212-555-1212&id=123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("apikey", "anon-key")
	req.Header.Set("X-Api-Key", "k")
	req.Header.Set("X-Note", "call +1 212 555 1212")
	req.Header.Set(requestIDHeader, "rid-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, leak := range []string{"jane@example.com", "212-555-1212", "123e4567", "secret-token", "anon-key"} {
		if strings.Contains(out, leak) {
			t.Fatalf("log leaked %q: %s", leak, out)
		}
	}
	m := lastLine(t, out)
	if m["level"] != "info" || m["path"] != "/users/:id" || m["request_id"] != "rid-42" {
		t.Fatalf("unexpected fields: %v", m)
	}
	hdrs, _ := m["headers"].(map[string]any)
	if hdrs["Authorization"] != "[REDACTED]" || hdrs["Apikey"] != "[REDACTED]" || hdrs["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", hdrs)
	}
}

func TestRedactingLogger_LevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/err", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for path, want := range map[string]string{"/warn": "warn", "/err": "error", "/missing": "warn"} {
		buf.Reset()
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		if got := lastLine(t, buf.String())["level"]; got != want {
			t.Fatalf("%s level = %v; want %s", path, got, want)
		}
	}
}

func TestRedactingLogger_AttachesContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.GET("/x", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "ctx-rid")
	r.ServeHTTP(httptest.NewRecorder(), req)

	first := strings.Split(strings.TrimSpace(buf.String()), "\n")[0]
	if !strings.Contains(first, "from service") || !strings.Contains(first, `"request_id":"ctx-rid"`) {
		t.Fatalf("context logger missing request id: %s", first)
	}
}

func TestRedactingLogger_LogsAdminActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/x", func(c *gin.Context) {
		c.Set(adminActorKey, "reviewer-1")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := lastLine(t, buf.String())["actor"]; got != "reviewer-1" {
		t.Fatalf("actor = %v", got)
	}
}
