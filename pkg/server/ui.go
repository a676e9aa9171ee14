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
	"net/http"

	"github.com/gin-gonic/gin"
)

// serveForm serves the connection form UI.
func (s *Server) serveForm(ctx *gin.Context) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Xtream Gateway</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #f0f0f0;
            padding: 20px;
        }
        .container {
            max-width: 500px;
            margin: 0 auto;
            background: white;
            padding: 30px;
            border-radius: 10px;
            box-shadow: 0 2px 12px rgba(0,0,0,0.15);
        }
        label { display: block; margin-bottom: 5px; font-weight: bold; }
        input, select {
            width: 100%;
            padding: 10px;
            margin-bottom: 15px;
            border: 1px solid #ddd;
            border-radius: 5px;
            box-sizing: border-box;
        }
        button {
            width: 100%;
            background: #007bff;
            color: white;
            padding: 12px;
            border: none;
            border-radius: 5px;
            font-size: 16px;
            cursor: pointer;
        }
        button:hover { background: #0069d9; }
        #result {
            margin-top: 20px;
            padding: 15px;
            border-radius: 5px;
            display: none;
            word-break: break-all;
        }
        #result.ok { background: #d4edda; color: #155724; }
        #result.err { background: #f8d7da; color: #721c24; }
        textarea { width: 100%; height: 120px; margin-top: 10px; box-sizing: border-box; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Xtream Gateway</h1>
        <p>Generate an anonymized playlist from your Xtream provider.</p>

        <form id="generateForm">
            <label>Server URL:</label>
            <input type="url" name="server_url" required placeholder="http://your-server.com:8080">

            <label>Username:</label>
            <input type="text" name="username" required placeholder="your_username">

            <label>Password:</label>
            <input type="password" name="password" required placeholder="your_password">

            <label>Content Type:</label>
            <select name="content_type" required>
                <option value="">Select Content Type</option>
                <option value="live">Live TV Only</option>
                <option value="movie">Movies/VOD Only</option>
                <option value="both">Both Live TV &amp; Movies</option>
            </select>

            <button type="submit">Generate Playlist</button>
        </form>

        <div id="result"></div>
    </div>

    <script>
        document.getElementById('generateForm').addEventListener('submit', async function(e) {
            e.preventDefault();
            const result = document.getElementById('result');
            const form = new FormData(e.target);
            const body = Object.fromEntries(form.entries());

            result.style.display = 'block';
            result.className = '';
            result.textContent = 'Connecting to provider...';

            try {
                const resp = await fetch('/api/generate', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify(body)
                });
                const data = await resp.json();
                if (!resp.ok) {
                    throw new Error(data.error || resp.statusText);
                }
                result.className = 'ok';
                result.innerHTML = '<strong>' + data.channelCount + ' channels found.</strong>' +
                    '<br>Session token: <code>' + data.sessionToken + '</code>' +
                    '<br>Expires: ' + data.expiresAt +
                    '<br><textarea readonly>' + data.m3uPlaylist + '</textarea>';
            } catch (err) {
                result.className = 'err';
                result.textContent = 'Error: ' + err.message;
            }
        });
    </script>
</body>
</html>`

	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.String(http.StatusOK, html)
}
