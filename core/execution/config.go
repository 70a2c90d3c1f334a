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

package execution

import (
	"time"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/core/matching"
	"code.vegaprotocol.io/perps/core/positions"
	"code.vegaprotocol.io/perps/core/risk"
	"code.vegaprotocol.io/perps/logging"
)

const (
	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "execution"
)

// Config is the configuration of the execution package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// TickInterval is the period of the engine clock driving funding,
	// breaker cooldowns, liquidation scans and market updates.
	TickInterval encoding.Duration `long:"tick-interval"`
	// TaskQueueSize is the capacity of each market lane queue.
	TaskQueueSize int `long:"task-queue-size"`
	// SnapshotDepth is the default number of levels per side in book
	// snapshots.
	SnapshotDepth int `long:"snapshot-depth"`

	Matching matching.Config  `group:"Matching" namespace:"matching"`
	Risk     risk.Config      `group:"Risk"     namespace:"risk"`
	Position positions.Config `group:"Position" namespace:"position"`
}

// NewDefaultConfig creates an instance of the package specific configuration, given a
// pointer to a logger instance to be used for logging within the package.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		TickInterval:  encoding.Duration{Duration: 100 * time.Millisecond},
		TaskQueueSize: 1024,
		SnapshotDepth: 20,
		Matching:      matching.NewDefaultConfig(),
		Risk:          risk.NewDefaultConfig(),
		Position:      positions.NewDefaultConfig(),
	}
}
