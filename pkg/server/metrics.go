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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "xtream_gateway",
		Name:      "sessions_created_total",
		Help:      "Session tokens minted by the generate API.",
	})

	playlistsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "xtream_gateway",
		Name:      "playlists_generated_total",
		Help:      "Full M3U playlists rendered and returned.",
	})

	streamsProxied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xtream_gateway",
		Name:      "streams_proxied_total",
		Help:      "Stream requests proxied upstream, by stream type.",
	}, []string{"type"})

	upstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "xtream_gateway",
		Name:      "upstream_errors_total",
		Help:      "Upstream stream fetches that failed at the transport level.",
	})
)
