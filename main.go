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

package main

import (
	"log"

	"github.com/joho/godotenv"

	"xtream-gateway/pkg/config"
	"xtream-gateway/pkg/server"
	"xtream-gateway/pkg/session"
)

func main() {
	// A .env file is optional; the environment always wins.
	if err := godotenv.Load(); err == nil {
		log.Printf("[xtream-gateway] loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[xtream-gateway] configuration error: %v", err)
	}

	store := session.NewStore(cfg.SessionTTL)
	store.StartSweeper(cfg.SweepInterval)
	defer store.Stop()

	srv, err := server.New(cfg, store)
	if err != nil {
		log.Fatalf("[xtream-gateway] startup error: %v", err)
	}
	defer srv.Close()

	if err := srv.Serve(); err != nil {
		log.Fatalf("[xtream-gateway] server error: %v", err)
	}
}
