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

package xtream

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexInt decodes from either a JSON number or a quoted string.
// Xtream panels are not consistent about which one they emit for
// stream_id and friends.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	v, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// Stream is one listing item from get_live_streams or get_vod_streams.
// Only the fields the gateway needs are modeled; panels attach plenty
// more, all ignored.
type Stream struct {
	Name         string  `json:"name"`
	ID           FlexInt `json:"stream_id"`
	EPGChannelID string  `json:"epg_channel_id"`
	CategoryName string  `json:"category_name"`
	Icon         string  `json:"stream_icon"`
}

// accountInfo is the player_api.php authentication response. Both
// sections must be present for credentials to count as valid; their
// contents are irrelevant to the gateway.
type accountInfo struct {
	UserInfo   json.RawMessage `json:"user_info"`
	ServerInfo json.RawMessage `json:"server_info"`
}

func (a accountInfo) complete() bool {
	return sectionPresent(a.UserInfo) && sectionPresent(a.ServerInfo)
}

func sectionPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
