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

package kafka

import (
	"time"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/logging"
)

const namedLogger = "kafka"

type Config struct {
	Level        encoding.LogLevel `long:"log-level"`
	Enabled      encoding.Bool     `long:"enabled" description:"publish events to kafka"`
	Brokers      []string          `long:"brokers" description:"kafka bootstrap addresses"`
	Topic        string            `long:"topic"`
	BatchTimeout encoding.Duration `long:"batch-timeout"`
	// Async publishing never blocks the caller, errors are only logged.
	Async encoding.Bool `long:"async"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:        encoding.LogLevel{Level: logging.InfoLevel},
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		Topic:        "perps.events",
		BatchTimeout: encoding.Duration{Duration: 10 * time.Millisecond},
		Async:        true,
	}
}
