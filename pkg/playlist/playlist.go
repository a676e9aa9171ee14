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

// Package playlist rewrites upstream listing entries into
// gateway-hosted stream URLs and renders them as an extended-M3U
// document.
package playlist

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesnetherton/m3u"
)

// StreamType selects the upstream path segment for an entry.
type StreamType string

const (
	TypeLive  StreamType = "live"
	TypeMovie StreamType = "movie"
)

// PreviewLimit bounds the preview list returned by the generate API.
// It only bounds the response payload for display; the full playlist
// always carries every entry.
const PreviewLimit = 50

// Entry is one upstream listing item. Entries are never mutated; they
// are mapped once into output URLs and playlist lines.
type Entry struct {
	Name         string
	StreamID     int
	Type         StreamType
	EPGChannelID string
	CategoryName string
	StreamIcon   string
}

// PreviewEntry is the JSON shape of one preview list item.
type PreviewEntry struct {
	Name     string     `json:"name"`
	StreamID int        `json:"stream_id"`
	Type     StreamType `json:"type"`
	URL      string     `json:"url"`
}

// ProxyURL builds the gateway-hosted URL for one entry.
func ProxyURL(gatewayBase, token string, e Entry) string {
	return fmt.Sprintf("%s/%d.m3u8?token=%s&type=%s",
		strings.TrimRight(gatewayBase, "/"), e.StreamID, token, e.Type)
}

// Preview maps the first min(PreviewLimit, len(entries)) entries to
// preview items, preserving input order.
func Preview(gatewayBase, token string, entries []Entry) []PreviewEntry {
	n := len(entries)
	if n > PreviewLimit {
		n = PreviewLimit
	}

	out := make([]PreviewEntry, 0, n)
	for _, e := range entries[:n] {
		out = append(out, PreviewEntry{
			Name:     e.Name,
			StreamID: e.StreamID,
			Type:     e.Type,
			URL:      ProxyURL(gatewayBase, token, e),
		})
	}
	return out
}

// attrSanitizer strips characters that would break an #EXTINF line.
var attrSanitizer = strings.NewReplacer(`"`, "", ",", "")

// Generate renders the full extended-M3U document: the #EXTM3U header
// followed by an #EXTINF line and a gateway URL line for every entry,
// in input order and without truncation.
func Generate(gatewayBase, token string, entries []Entry) string {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")

	for _, e := range entries {
		track := entryTrack(e)

		var line bytes.Buffer
		line.WriteString("#EXTINF:")
		line.WriteString(fmt.Sprintf("%d ", track.Length))
		for i := range track.Tags {
			if i == len(track.Tags)-1 {
				line.WriteString(fmt.Sprintf("%s=%q", track.Tags[i].Name, track.Tags[i].Value))
				continue
			}
			line.WriteString(fmt.Sprintf("%s=%q ", track.Tags[i].Name, track.Tags[i].Value))
		}

		buf.WriteString(fmt.Sprintf("%s, %s\n%s\n", line.String(), track.Name, ProxyURL(gatewayBase, token, e)))
	}

	return buf.String()
}

// entryTrack maps an entry onto an m3u track with the fallbacks and
// sanitization the playlist contract requires.
func entryTrack(e Entry) m3u.Track {
	name := attrSanitizer.Replace(e.Name)
	group := attrSanitizer.Replace(e.CategoryName)
	logo := attrSanitizer.Replace(e.StreamIcon)

	track := m3u.Track{Name: name, Length: -1, URI: "", Tags: nil}

	switch e.Type {
	case TypeMovie:
		if track.Name == "" {
			track.Name = "Unknown Movie"
		}
		if group == "" {
			group = "Movies"
		}
	default:
		if track.Name == "" {
			track.Name = "Unknown Channel"
		}
		if group == "" {
			group = "Uncategorized"
		}

		tvgID := attrSanitizer.Replace(e.EPGChannelID)
		if tvgID == "" && e.StreamID != 0 {
			tvgID = strconv.Itoa(e.StreamID)
		}
		track.Tags = append(track.Tags,
			m3u.Tag{Name: "tvg-id", Value: tvgID},
			m3u.Tag{Name: "tvg-name", Value: track.Name},
		)
	}

	track.Tags = append(track.Tags,
		m3u.Tag{Name: "tvg-logo", Value: logo},
		m3u.Tag{Name: "group-title", Value: group},
	)

	return track
}
