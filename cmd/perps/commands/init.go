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

package commands

import (
	"context"
	"fmt"
	"os"

	"code.vegaprotocol.io/perps/config"
	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/logging"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	HomeFlag

	Force bool `short:"f" long:"force" description:"Erase existing configuration at the specified path"`
}

var initCmd InitCmd

func Init(ctx context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{}
	_, err := parser.AddCommand("init", "Initialise a perps node", "Generate the configuration and markets files required for a perps node to start", &initCmd)
	return err
}

func (opts *InitCmd) Execute(_ []string) error {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer log.AtExit()

	return initHome(log, opts.RootPath(), opts.Force)
}

func initHome(log *logging.Logger, rootPath string, force bool) error {
	if err := os.MkdirAll(rootPath, 0o700); err != nil {
		return fmt.Errorf("couldn't create home directory: %w", err)
	}

	cfg := config.NewDefaultConfig()
	if err := config.Write(rootPath, cfg, force); err != nil {
		return err
	}

	path := cfg.MarketsPath(rootPath)
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if err != nil {
		return fmt.Errorf("couldn't create markets file: %w", err)
	}
	defer f.Close()
	if err := markets.Encode(f, markets.DefaultMarkets()); err != nil {
		return err
	}

	log.Info("configuration generated successfully", logging.String("path", rootPath))
	return nil
}
