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

package broker

import (
	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level   encoding.LogLevel `long:"log-level"`
	Journal JournalConfig     `group:"Journal" namespace:"journal"`
}

type JournalConfig struct {
	Enabled encoding.Bool `long:"enabled" description:"write every event to a JSON lines journal"`
	Path    string        `long:"path" description:"path of the journal file"`
	// FlushEvery controls how many events are buffered before being
	// flushed to disk, 1 flushes each event.
	FlushEvery int `long:"flush-every"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Journal: JournalConfig{
			Enabled:    true,
			Path:       "perps.journal",
			FlushEvery: 1,
		},
	}
}
