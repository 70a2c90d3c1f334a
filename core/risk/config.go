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

package risk

import (
	"time"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/logging"
)

// namedLogger is the identifier for package and should ideally match the package name
// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
const namedLogger = "risk"

// Config represents the configuration of the risk engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// ScanInterval is the cadence of the full liquidation scan of a market.
	ScanInterval encoding.Duration `long:"scan-interval"`
	// DefaultMaxSteps bounds partial liquidation steps for markets that do
	// not configure it.
	DefaultMaxSteps int `long:"default-max-steps"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		ScanInterval:    encoding.Duration{Duration: time.Second},
		DefaultMaxSteps: 4,
	}
}
