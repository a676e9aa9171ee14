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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the gateway runtime configuration, populated from the
// environment (optionally via a .env file loaded in main).
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// PublicURL is the externally visible base URL used when rewriting
	// stream URLs. When empty, the base is derived per request from the
	// inbound Host header.
	PublicURL string

	// SessionTTL is how long a minted session token stays valid.
	SessionTTL time.Duration

	// SweepInterval is how often the background sweeper removes expired
	// sessions from memory.
	SweepInterval time.Duration

	// UpstreamTimeout is the fixed timeout for a single upstream call.
	// There is no retry: a call either succeeds or fails within it.
	UpstreamTimeout time.Duration

	// RedisURL enables the optional upstream listing cache when set.
	RedisURL string

	// ListingCacheTTL is the TTL applied to cached listing responses.
	ListingCacheTTL time.Duration

	// GenerateRatePerMin limits POST /api/generate calls per client IP,
	// since every call hits the provider's credential check.
	GenerateRatePerMin int
}

const (
	defaultListenAddr      = ":8080"
	defaultSessionTTL      = 24 * time.Hour
	defaultSweepInterval   = 10 * time.Minute
	defaultUpstreamTimeout = 30 * time.Second
	defaultListingCacheTTL = 1 * time.Hour
	defaultGenerateRate    = 10
)

// Load builds a Config from environment variables, applying defaults
// for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:         envOr("LISTEN_ADDR", defaultListenAddr),
		PublicURL:          strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		SessionTTL:         defaultSessionTTL,
		SweepInterval:      defaultSweepInterval,
		UpstreamTimeout:    defaultUpstreamTimeout,
		RedisURL:           os.Getenv("REDIS_URL"),
		ListingCacheTTL:    defaultListingCacheTTL,
		GenerateRatePerMin: defaultGenerateRate,
	}

	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{"SESSION_TTL", &cfg.SessionTTL},
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
		{"UPSTREAM_TIMEOUT", &cfg.UpstreamTimeout},
		{"LISTING_CACHE_TTL", &cfg.ListingCacheTTL},
	} {
		raw := os.Getenv(d.name)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be positive", d.name, raw)
		}
		*d.dst = v
	}

	if raw := os.Getenv("GENERATE_RATE"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid GENERATE_RATE %q", raw)
		}
		cfg.GenerateRatePerMin = v
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
