package server

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dap-ware/whodis/config"
	"github.com/dap-ware/whodis/lookup"
	"github.com/dap-ware/whodis/metrics"
	"github.com/dap-ware/whodis/models"
	"github.com/dap-ware/whodis/store"
)

var startTime = time.Now()

type RateLimiter struct {
	visits map[string]*rate.Limiter
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
}

// NewRateLimiter builds a per-client-IP limiter allowing limit requests
// per resetTime with a small burst on top.
func NewRateLimiter(limit int, resetTime time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if resetTime <= 0 {
		resetTime = time.Hour
	}
	return &RateLimiter{
		visits: make(map[string]*rate.Limiter),
		limit:  rate.Every(resetTime / time.Duration(limit)),
		burst:  limit / 10,
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		rl.mu.Lock()
		limiter, visited := rl.visits[clientIP]
		if !visited {
			burst := rl.burst
			if burst < 1 {
				burst = 1
			}
			limiter = rate.NewLimiter(rl.limit, burst)
			rl.visits[clientIP] = limiter
		}
		rl.mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// Server bundles what the handlers need.
type Server struct {
	Client  *lookup.Client
	Db      *sql.DB
	Records chan []models.Record
}

// StartServer starts the Gin server in a separate goroutine and returns
// it together with a channel closed once the listener exits.
func StartServer(client *lookup.Client, db *sql.DB, records chan []models.Record, cfg *config.Config, wg *sync.WaitGroup) (*http.Server, chan struct{}) {
	rateLimiter := NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateReset)

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(rateLimiter.RateLimit())

	s := &Server{Client: client, Db: db, Records: records}

	r.GET("/v1/whois", func(c *gin.Context) {
		domain := c.Query("domain")
		fresh, _ := strconv.ParseBool(c.DefaultQuery("fresh", "false"))
		s.handleLookup(c, domain, fresh, false)
	})

	r.POST("/v1/whois", func(c *gin.Context) {
		var body struct {
			Domain string `json:"domain"`
			Fresh  bool   `json:"fresh"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.handleLookup(c, body.Domain, body.Fresh, false)
	})

	r.GET("/v1/whois/:domain", func(c *gin.Context) {
		s.handleLookup(c, c.Param("domain"), false, false)
	})

	r.GET("/v1/whois/:domain/debug", func(c *gin.Context) {
		s.handleLookup(c, c.Param("domain"), true, true)
	})

	// handler for paging through persisted lookups
	r.GET("/v1/history", func(c *gin.Context) {
		page, size, err := parseQueryParams(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entries, err := store.FetchHistory(s.Db, page, size)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
			return
		}

		c.JSON(http.StatusOK, entries)
	})

	r.GET("/v1/history/:domain", func(c *gin.Context) {
		entries, err := store.FetchDomainHistory(s.Db, c.Param("domain"), 100)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	r.GET("/v1/watch", func(c *gin.Context) {
		s.handleWatch(c)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"cache":          s.Client.CacheEnabled(),
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
		})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	started := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
		close(started)
	}()

	return srv, started
}

// handleLookup runs one lookup and writes the record or a mapped error.
func (s *Server) handleLookup(c *gin.Context, domain string, fresh, debug bool) {
	metrics.IncrementRequests(domain)

	var (
		rec models.Record
		err error
	)
	switch {
	case debug:
		rec, err = s.Client.LookupDebug(c.Request.Context(), domain)
	case fresh:
		rec, err = s.Client.LookupFresh(c.Request.Context(), domain)
	default:
		rec, err = s.Client.Lookup(c.Request.Context(), domain)
	}
	if err != nil {
		kind := models.Classify(err)
		metrics.IncrementErrors(string(kind))
		status := statusForError(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "Internal server error"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if rec.Cached {
		metrics.IncrementCacheHits()
	} else {
		metrics.IncrementCacheMisses()
		s.enqueue(rec)
	}
	metrics.RecordQueryTime(rec.QueryTimeMS)

	c.JSON(http.StatusOK, rec)
}

// enqueue hands a fresh record to the history writer without ever
// blocking a response on it.
func (s *Server) enqueue(rec models.Record) {
	if s.Records == nil {
		return
	}
	select {
	case s.Records <- []models.Record{rec}:
	default:
		log.Printf("history queue full, dropping record for %s", rec.Domain)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidDomain), errors.Is(err, models.ErrUnsupportedTLD):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseQueryParams parses and validates pagination parameters.
func parseQueryParams(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 0, 0, err
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "100"))
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 1000 {
		size = 100
	}
	return page, size, nil
}
