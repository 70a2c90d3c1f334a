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
	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/logging"
)

const namedLogger = "auth"

// Config lists the capabilities granted to each caller. A "*" caller
// grants its capabilities to everyone.
type Config struct {
	Level  encoding.LogLevel   `long:"log-level"`
	Grants map[string][]string `long:"grant"`
}

func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Grants: map[string][]string{
			"*": {CapabilityTrade.String(), CapabilityMargin.String()},
		},
	}
}
