/*
 * Xtream-Gateway converts an Xtream-codes IPTV service into anonymized,
 * tokenized stream URLs that never expose provider credentials.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package server exposes the gateway HTTP surface: the generate API
// that mints session tokens, the tokenized stream proxy routes and the
// HTML form UI.
package server

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	uuid "github.com/satori/go.uuid"

	"xtream-gateway/pkg/config"
	"xtream-gateway/pkg/session"
	"xtream-gateway/pkg/xtream"
)

// Server wires the session store and listing cache into the request
// handlers. Both are injected at construction; nothing here is ambient
// process state.
type Server struct {
	cfg     *config.Config
	store   *session.Store
	cache   *RedisCache
	limiter *ipRateLimiter
}

// New builds a server around the given store. The Redis listing cache
// is optional and only connected when the config carries a URL.
func New(cfg *config.Config, store *session.Store) (*Server, error) {
	cache, err := NewRedisCache(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		store:   store,
		cache:   cache,
		limiter: newIPRateLimiter(cfg.GenerateRatePerMin),
	}, nil
}

// Close releases the Redis connection when a listing cache is
// configured. Safe on a server without one.
func (s *Server) Close() error {
	return s.cache.Close()
}

// Serve runs the gateway until the listener fails.
func (s *Server) Serve() error {
	router := gin.Default()
	router.Use(requestID())
	router.Use(cors.New(corsConfig()))

	s.routes(router)

	log.Printf("[xtream-gateway] server is ready and listening on %s", s.cfg.ListenAddr)
	return router.Run(s.cfg.ListenAddr)
}

func (s *Server) routes(router *gin.Engine) {
	router.GET("/", s.serveForm)
	router.POST("/api/generate", s.generate)
	router.GET("/playlist.m3u8", s.playlistStream)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/:id", s.stream)

	// Plain OPTIONS probes (no preflight headers) bypass the CORS
	// middleware's preflight path and land here.
	router.OPTIONS("/*any", func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Content-Type"}
	cfg.OptionsResponseStatusCode = http.StatusOK
	return cfg
}

// requestID tags every request with an id for log correlation.
func requestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewV4().String()
		}
		ctx.Header("X-Request-ID", id)
		ctx.Next()
	}
}

// listingCache adapts the optional Redis cache to the client hook.
func (s *Server) listingCache() xtream.ListingCache {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// gatewayBase is the base URL embedded in rewritten stream URLs:
// the configured public URL, or the inbound request's scheme and host
// when none is configured.
func (s *Server) gatewayBase(ctx *gin.Context) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}

	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + ctx.Request.Host
}
