package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dap-ware/whodis/lookup"
	"github.com/dap-ware/whodis/models"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", models.ErrInvalidDomain), http.StatusBadRequest},
		{fmt.Errorf("%w: zz", models.ErrUnsupportedTLD), http.StatusBadRequest},
		{fmt.Errorf("%w: nothing", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: slow", models.ErrTimeout), http.StatusRequestTimeout},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, statusForError(tc.err), tc.err.Error())
	}
}

func TestParseQueryParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/v1/history"+query, nil)
		return c
	}

	page, size, err := parseQueryParams(newCtx(""))
	require.NoError(t, err)
	require.Equal(t, 1, page)
	require.Equal(t, 100, size)

	page, size, err = parseQueryParams(newCtx("?page=3&size=50"))
	require.NoError(t, err)
	require.Equal(t, 3, page)
	require.Equal(t, 50, size)

	// out-of-range values are clamped, junk is an error
	page, size, err = parseQueryParams(newCtx("?page=0&size=99999"))
	require.NoError(t, err)
	require.Equal(t, 1, page)
	require.Equal(t, 100, size)

	_, _, err = parseQueryParams(newCtx("?page=abc"))
	require.Error(t, err)
}

func TestHandleLookupInvalidDomainReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client, err := lookup.NewWithoutCache()
	require.NoError(t, err)
	s := &Server{Client: client}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/whois/example..com", nil)

	s.handleLookup(c, "example..com", false, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "error")
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(10, time.Hour)
	router := gin.New()
	router.Use(rl.RateLimit())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	var lastCode int
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		router.ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimiterIsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(10, time.Hour)
	router := gin.New()
	router.Use(rl.RateLimit())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// exhaust one client
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		router.ServeHTTP(rec, req)
	}

	// a different client is still fine
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "198.51.100.7:9999"
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
