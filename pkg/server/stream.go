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

package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"xtream-gateway/pkg/playlist"
	"xtream-gateway/pkg/xtream"
)

// m3u8ContentType is forced on every proxied response regardless of
// what the provider sent.
const m3u8ContentType = "application/vnd.apple.mpegurl"

var streamPathPattern = regexp.MustCompile(`^(\d+)\.m3u8$`)

// stream handles GET /{numericId}.m3u8?token=&type=. Paths that do not
// match the shape fall through to the generic 404.
func (s *Server) stream(ctx *gin.Context) {
	m := streamPathPattern.FindStringSubmatch(ctx.Param("id"))
	if m == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}
	streamID, _ := strconv.Atoi(m[1])

	s.resolveAndProxy(ctx, streamID, ctx.Query("token"), ctx.Query("type"))
}

// playlistStream handles GET /playlist.m3u8?id=&token=&type=, the
// query-parameter shape of the same route. Type validation is
// identical to the path shape.
func (s *Server) playlistStream(ctx *gin.Context) {
	streamID, err := strconv.Atoi(ctx.Query("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid stream id"})
		return
	}

	s.resolveAndProxy(ctx, streamID, ctx.Query("token"), ctx.Query("type"))
}

// resolveAndProxy runs the per-request pipeline: resolve the token to
// credentials, rebuild the upstream URL and forward the response
// verbatim. It terminates on the first failing step.
func (s *Server) resolveAndProxy(ctx *gin.Context, streamID int, token, streamType string) {
	creds, err := s.store.Resolve(token)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session token"})
		return
	}

	if streamType == "" {
		streamType = string(playlist.TypeLive)
	}
	var segment string
	switch playlist.StreamType(streamType) {
	case playlist.TypeLive:
		segment = "live"
	case playlist.TypeMovie:
		segment = "movie"
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stream type"})
		return
	}

	upstream := xtream.StreamURL(creds.ServerURL, segment, creds.Username, creds.Password, streamID)

	s.proxy(ctx, upstream, streamType)
}

// proxy issues a single upstream request, no retry, and forwards the
// upstream status and body unmodified.
func (s *Server) proxy(ctx *gin.Context, upstream, streamType string) {
	req, err := http.NewRequestWithContext(ctx.Request.Context(), http.MethodGet, upstream, nil)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to build upstream request: %v", err)})
		return
	}
	mergeHTTPHeader(req.Header, ctx.Request.Header)

	client := &http.Client{Timeout: s.cfg.UpstreamTimeout}
	resp, err := client.Do(req)
	if err != nil {
		upstreamErrors.Inc()
		log.Printf("[xtream-gateway] upstream fetch failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch stream: %v", err)})
		return
	}
	defer resp.Body.Close()

	mergeHTTPHeader(ctx.Writer.Header(), resp.Header)
	ctx.Header("Content-Type", m3u8ContentType)
	ctx.Status(resp.StatusCode)

	streamsProxied.WithLabelValues(streamType).Inc()

	// 128KB buffer, 4x the io.Copy default, to cut syscall churn.
	buf := make([]byte, 128*1024)
	ctx.Stream(func(w io.Writer) bool {
		io.CopyBuffer(w, resp.Body, buf) // nolint: errcheck
		return false
	})
}

type values []string

func (vs values) contains(s string) bool {
	for _, v := range vs {
		if v == s {
			return true
		}
	}
	return false
}

func mergeHTTPHeader(dst, src http.Header) {
	for k, vv := range src {
		// The upstream hop gets its own Host and a pinned User-Agent.
		if strings.EqualFold(k, "Host") {
			continue
		}
		for _, v := range vv {
			if values(dst.Values(k)).contains(v) {
				continue
			}
			dst.Add(k, v)
		}
	}
}
