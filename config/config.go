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

//lint:file-ignore SA5008 duplicated struct tags are ok for config

package config

import (
	"bytes"
	"os"
	"path/filepath"

	"code.vegaprotocol.io/perps/core/auth"
	"code.vegaprotocol.io/perps/core/broker"
	"code.vegaprotocol.io/perps/core/broker/kafka"
	"code.vegaprotocol.io/perps/core/execution"
	"code.vegaprotocol.io/perps/core/insurance"
	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/core/oracle"
	"code.vegaprotocol.io/perps/core/service"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const configFileName = "config.toml"

// ErrConfigExists is returned when init would overwrite a configuration.
var ErrConfigExists = errors.New("configuration file already exists")

// Config ties together all other application configuration types.
type Config struct {
	Logging   logging.Config   `group:"Logging"   namespace:"logging"`
	Metrics   metrics.Config   `group:"Metrics"   namespace:"metrics"`
	Broker    broker.Config    `group:"Broker"    namespace:"broker"`
	Kafka     kafka.Config     `group:"Kafka"     namespace:"kafka"`
	Oracle    oracle.Config    `group:"Oracle"    namespace:"oracle"`
	Execution execution.Config `group:"Execution" namespace:"execution"`
	Markets   markets.Config   `group:"Markets"   namespace:"markets"`
	Insurance insurance.Config `group:"Insurance" namespace:"insurance"`
	Auth      auth.Config      `group:"Auth"      namespace:"auth"`
	Service   service.Config   `group:"Service"   namespace:"service"`
}

// NewDefaultConfig returns a set of default configs for all packages, as specified at the per package
// config level.
func NewDefaultConfig() Config {
	return Config{
		Logging:   logging.NewDefaultConfig(),
		Metrics:   metrics.NewDefaultConfig(),
		Broker:    broker.NewDefaultConfig(),
		Kafka:     kafka.NewDefaultConfig(),
		Oracle:    oracle.NewDefaultConfig(),
		Execution: execution.NewDefaultConfig(),
		Markets:   markets.NewDefaultConfig(),
		Insurance: insurance.NewDefaultConfig(),
		Auth:      auth.NewDefaultConfig(),
		Service:   service.NewDefaultConfig(),
	}
}

// MarketsPath resolves the markets file against the root directory.
func (c Config) MarketsPath(rootPath string) string {
	if filepath.IsAbs(c.Markets.File) {
		return c.Markets.File
	}
	return filepath.Join(rootPath, c.Markets.File)
}

// Read loads the configuration of rootPath over the defaults.
func Read(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, configFileName)
	cfg := NewDefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "unable to read configuration %s", path)
	}
	return &cfg, nil
}

// Write saves cfg in rootPath, refusing to replace an existing file unless
// overwrite is set.
func Write(rootPath string, cfg Config, overwrite bool) error {
	path := filepath.Join(rootPath, configFileName)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.Wrap(ErrConfigExists, path)
	}

	buf := bytes.Buffer{}
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "unable to encode configuration")
	}
	if err := os.MkdirAll(rootPath, 0o700); err != nil {
		return errors.Wrapf(err, "unable to create %s", rootPath)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrapf(err, "unable to write configuration %s", path)
	}
	return nil
}
