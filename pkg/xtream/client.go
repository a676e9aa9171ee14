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

// Package xtream is a minimal Xtream-codes player_api.php client bound
// to one credential bundle per instance. A single attempt with a fixed
// timeout either succeeds or fails; there is no retry or backoff.
package xtream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"xtream-gateway/pkg/playlist"
)

const (
	actionUserInfo    = "get_user_info"
	actionLiveStreams = "get_live_streams"
	actionVODStreams  = "get_vod_streams"

	// Cloudflare-fronted panels block Go's default User-Agent, so all
	// API calls present a browser-like one.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	// ErrInvalidCredentials covers every authentication failure mode:
	// transport errors, non-2xx statuses and malformed responses are
	// deliberately not distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials or server response")

	// ErrNoChannels means the scope-filtered listings came back empty.
	ErrNoChannels = errors.New("no channels found")
)

// Scope selects which listing queries to issue.
type Scope string

const (
	ScopeLive  Scope = "live"
	ScopeMovie Scope = "movie"
	ScopeBoth  Scope = "both"
)

// ParseScope validates a content_type form value.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeLive, ScopeMovie, ScopeBoth:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid content type %q", s)
}

// ListingCache caches listing responses keyed by credentials+action.
// Implemented by the server's Redis cache; nil disables caching.
type ListingCache interface {
	GetJSON(key string, dest interface{}) (bool, error)
	SetJSON(key string, data interface{}, ttl time.Duration) error
}

// Client talks to one provider with one credential bundle.
type Client struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	userAgent  string

	cache    ListingCache
	cacheTTL time.Duration
}

// NewClient builds a client for the given provider and credentials.
// serverURL is normalized without trailing slashes.
func NewClient(serverURL, username, password string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
}

// WithCache enables listing caching on the client and returns it.
func (c *Client) WithCache(cache ListingCache, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// Authenticate issues a get_user_info query. Valid credentials are a
// 2xx status whose body carries both a user_info and a server_info
// section; anything else is ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := c.get(ctx, actionUserInfo)
	if err != nil {
		log.Printf("[xtream-gateway] user info query against %s failed: %v", c.baseURL, err)
		return ErrInvalidCredentials
	}

	// json-iterator handles ,string quirks in panel responses better
	// than the standard library.
	var json = jsoniter.ConfigCompatibleWithStandardLibrary

	var info accountInfo
	if err := json.Unmarshal(body, &info); err != nil || !info.complete() {
		log.Printf("[xtream-gateway] user info response from %s is missing user_info/server_info", c.baseURL)
		return ErrInvalidCredentials
	}
	return nil
}

// GetLiveStreams fetches the live channel listing.
func (c *Client) GetLiveStreams(ctx context.Context) ([]Stream, error) {
	return c.getStreams(ctx, actionLiveStreams)
}

// GetVODStreams fetches the movie listing.
func (c *Client) GetVODStreams(ctx context.Context) ([]Stream, error) {
	return c.getStreams(ctx, actionVODStreams)
}

// FetchListings issues the listing queries selected by scope and maps
// the results to playlist entries, live entries before movie entries.
// A failing query is logged and contributes zero entries; only a
// combined empty result is an error (ErrNoChannels).
func (c *Client) FetchListings(ctx context.Context, scope Scope) ([]playlist.Entry, error) {
	var entries []playlist.Entry

	if scope == ScopeLive || scope == ScopeBoth {
		streams, err := c.GetLiveStreams(ctx)
		if err != nil {
			log.Printf("[xtream-gateway] WARNING: live listing query failed, continuing without it: %v", err)
		} else {
			entries = appendEntries(entries, streams, playlist.TypeLive)
		}
	}

	if scope == ScopeMovie || scope == ScopeBoth {
		streams, err := c.GetVODStreams(ctx)
		if err != nil {
			log.Printf("[xtream-gateway] WARNING: VOD listing query failed, continuing without it: %v", err)
		} else {
			entries = appendEntries(entries, streams, playlist.TypeMovie)
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoChannels
	}
	return entries, nil
}

// StreamURL builds the upstream stream URL for one channel. The
// credential segments are path-escaped; panels issue usernames with
// spaces and slashes in them.
func StreamURL(serverURL, segment, username, password string, streamID int) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d.m3u8",
		strings.TrimRight(serverURL, "/"), segment,
		url.PathEscape(username), url.PathEscape(password), streamID)
}

func appendEntries(entries []playlist.Entry, streams []Stream, t playlist.StreamType) []playlist.Entry {
	for _, s := range streams {
		entries = append(entries, playlist.Entry{
			Name:         s.Name,
			StreamID:     int(s.ID),
			Type:         t,
			EPGChannelID: s.EPGChannelID,
			CategoryName: s.CategoryName,
			StreamIcon:   s.Icon,
		})
	}
	return entries
}

func (c *Client) getStreams(ctx context.Context, action string) ([]Stream, error) {
	cacheKey := fmt.Sprintf("listing:%s:%s:%s", c.baseURL, c.username, action)
	if c.cache != nil {
		var cached []Stream
		if found, err := c.cache.GetJSON(cacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	body, err := c.get(ctx, action)
	if err != nil {
		return nil, err
	}

	var json = jsoniter.ConfigCompatibleWithStandardLibrary

	var streams []Stream
	if err := json.Unmarshal(body, &streams); err != nil {
		// A non-array body (panels return an error object, or nothing)
		// counts as an empty listing for this query, not a failure.
		log.Printf("[xtream-gateway] WARNING: %s response from %s is not an array, treating as empty", action, c.baseURL)
		return nil, nil
	}

	if c.cache != nil && len(streams) > 0 {
		if err := c.cache.SetJSON(cacheKey, streams, c.cacheTTL); err != nil {
			log.Printf("[xtream-gateway] WARNING: failed to cache %s listing: %v", action, err)
		}
	}
	return streams, nil
}

func (c *Client) get(ctx context.Context, action string) ([]byte, error) {
	q := url.Values{}
	q.Set("username", c.username)
	q.Set("password", c.password)
	q.Set("action", action)

	reqURL := fmt.Sprintf("%s/player_api.php?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status %d for %s", resp.StatusCode, action)
	}

	return io.ReadAll(resp.Body)
}
