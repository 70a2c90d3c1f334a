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

package logging

// Config contains the configurable items for this package.
type Config struct {
	Environment string     `long:"env" choice:"dev" choice:"prod" description:"Logging preset"`
	Custom      *Custom    `group:"Custom" namespace:"custom"`
	File        FileConfig `group:"File" namespace:"file"`
}

// Custom allows overriding the preset encoding and level.
type Custom struct {
	Zap *Zap
}

// Zap holds the overridable zap options.
type Zap struct {
	Level    string
	Encoding string
}

// FileConfig configures an additional, rotated, log file.
type FileConfig struct {
	Enabled    bool   `long:"enabled" description:"Also write logs to a rotated file"`
	Path       string `long:"path"`
	MaxSizeMB  int    `long:"max-size-mb"`
	MaxBackups int    `long:"max-backups"`
	MaxAgeDays int    `long:"max-age-days"`
	Compress   bool   `long:"compress"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment: "dev",
		File: FileConfig{
			Enabled:    false,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}
