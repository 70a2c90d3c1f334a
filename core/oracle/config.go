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

package oracle

import (
	"time"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
)

const namedLogger = "oracle"

// SourceConfig describes one independent price source.
type SourceConfig struct {
	ID      string        `long:"id"`
	Weight  num.Decimal   `long:"weight"`
	Enabled encoding.Bool `long:"enabled"`
	// Markets restricts the source to some markets, empty means all.
	Markets []string `long:"markets"`
}

// Config represents the configuration of the price aggregator.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// MaxAge discards source reports older than this.
	MaxAge encoding.Duration `long:"max-age"`
	// StalenessBound invalidates an aggregated price whose newest source
	// is older than this.
	StalenessBound encoding.Duration `long:"staleness-bound"`
	// DecayWindow is the age at which a report's weight reaches zero.
	DecayWindow encoding.Duration `long:"decay-window"`
	// OutlierThreshold is the multiple of the MAD beyond which a report is rejected.
	OutlierThreshold num.Decimal `long:"outlier-threshold"`
	// MinDeviationRate floors the MAD at this fraction of the median.
	MinDeviationRate num.Decimal    `long:"min-deviation-rate"`
	MinSources       int            `long:"min-sources"`
	Sources          []SourceConfig `group:"Sources" namespace:"sources"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:            encoding.LogLevel{Level: logging.InfoLevel},
		MaxAge:           encoding.Duration{Duration: 30 * time.Second},
		StalenessBound:   encoding.Duration{Duration: 60 * time.Second},
		DecayWindow:      encoding.Duration{Duration: 60 * time.Second},
		OutlierThreshold: num.DecimalFromInt64(3),
		MinDeviationRate: num.MustDecimalFromString("0.0001"),
		MinSources:       1,
		Sources:          []SourceConfig{},
	}
}
