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

package session

import (
	"log"
	"time"
)

// StartSweeper runs SweepExpired on the given interval until Stop is
// called. Expiry is already enforced at Resolve time; the sweeper only
// reclaims memory held by dead entries.
func (s *Store) StartSweeper(interval time.Duration) {
	s.wg.Add(1)
	go s.run(interval)
	log.Printf("[xtream-gateway] session sweeper started (interval %v)", interval)
}

// Stop terminates the background sweeper and waits for it to exit.
// Safe to call more than once.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Store) run(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if removed := s.SweepExpired(); removed > 0 {
				log.Printf("[xtream-gateway] swept %d expired session(s), %d remaining", removed, s.Len())
			}
		}
	}
}
