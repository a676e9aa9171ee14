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
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"xtream-gateway/pkg/playlist"
	"xtream-gateway/pkg/session"
	"xtream-gateway/pkg/xtream"
)

// generateRequest is the JSON body of POST /api/generate.
type generateRequest struct {
	ServerURL   string `json:"server_url" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// generateResponse carries the minted token, a bounded preview of the
// rewritten channels and the full playlist document.
type generateResponse struct {
	Success      bool                    `json:"success"`
	SessionToken string                  `json:"sessionToken"`
	ChannelCount int                     `json:"channelCount"`
	Channels     []playlist.PreviewEntry `json:"channels"`
	M3UPlaylist  string                  `json:"m3uPlaylist"`
	ExpiresAt    time.Time               `json:"expiresAt"`
}

// generate validates provider credentials, fetches the scoped
// listings, mints a session token bound to the credentials and
// responds with the rewritten channel preview plus the full playlist.
func (s *Server) generate(ctx *gin.Context) {
	if !s.limiter.allow(ctx.ClientIP()) {
		ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		return
	}

	var req generateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: server_url, username, password, content_type"})
		return
	}

	scope, err := xtream.ParseScope(req.ContentType)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "content_type must be one of: live, movie, both"})
		return
	}

	client := xtream.NewClient(req.ServerURL, req.Username, req.Password, s.cfg.UpstreamTimeout).
		WithCache(s.listingCache(), s.cfg.ListingCacheTTL)

	if err := client.Authenticate(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials or server response"})
		return
	}

	entries, err := client.FetchListings(ctx.Request.Context(), scope)
	if err != nil {
		if errors.Is(err, xtream.ErrNoChannels) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "No channels found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Mint the session only after the upstream accepted the
	// credentials and produced at least one channel.
	token, expiresAt := s.store.Create(session.Credentials{
		ServerURL: req.ServerURL,
		Username:  req.Username,
		Password:  req.Password,
	})
	sessionsCreated.Inc()

	// Opportunistic sweep; the background sweeper covers idle periods.
	s.store.SweepExpired()

	base := s.gatewayBase(ctx)
	resp := generateResponse{
		Success:      true,
		SessionToken: token,
		ChannelCount: len(entries),
		Channels:     playlist.Preview(base, token, entries),
		M3UPlaylist:  playlist.Generate(base, token, entries),
		ExpiresAt:    expiresAt,
	}
	playlistsGenerated.Inc()

	log.Printf("[xtream-gateway] %s | session minted, scope %s, %d channel(s)", ctx.ClientIP(), scope, len(entries))
	ctx.JSON(http.StatusOK, resp)
}
