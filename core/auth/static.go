// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package auth

import (
	"errors"
	"fmt"
	"sync"

	"code.vegaprotocol.io/perps/logging"
)

// Everyone is the caller entry whose grants apply to all callers.
const Everyone = "*"

// ErrUnauthorised is returned when the caller lacks the capability.
var ErrUnauthorised = errors.New("unauthorised")

// Static authorises callers from the grants of its configuration.
type Static struct {
	log *logging.Logger

	mu     sync.RWMutex
	grants map[string]Capability
}

func NewStatic(log *logging.Logger, cfg Config) (*Static, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	grants, err := parseGrants(cfg.Grants)
	if err != nil {
		return nil, err
	}
	return &Static{
		log:    log,
		grants: grants,
	}, nil
}

func parseGrants(in map[string][]string) (map[string]Capability, error) {
	out := make(map[string]Capability, len(in))
	for caller, names := range in {
		for _, n := range names {
			c, err := ParseCapability(n)
			if err != nil {
				return nil, fmt.Errorf("grant for %s: %w", caller, err)
			}
			out[caller] |= c
		}
	}
	return out, nil
}

// ReloadConf replaces the grants. Invalid grants are logged and the
// previous ones kept.
func (s *Static) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}

	grants, err := parseGrants(cfg.Grants)
	if err != nil {
		s.log.Error("invalid grants, keeping previous ones", logging.Error(err))
		return
	}
	s.mu.Lock()
	s.grants = grants
	s.mu.Unlock()
}

// Capabilities returns everything the caller is allowed to do.
func (s *Static) Capabilities(caller string) Capability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[caller] | s.grants[Everyone]
}

func (s *Static) Authorise(caller string, c Capability) error {
	if len(caller) > 0 && s.Capabilities(caller).Has(c) {
		return nil
	}
	if s.log.IsDebug() {
		s.log.Debug("call refused",
			logging.PartyID(caller),
			logging.String("capability", c.String()))
	}
	return fmt.Errorf("%w: %s needs %s", ErrUnauthorised, caller, c)
}
