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
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.vegaprotocol.io/perps/config"
	"code.vegaprotocol.io/perps/core/protocol"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/version"

	"github.com/jessevdk/go-flags"
)

type StartCmd struct {
	HomeFlag
}

var startCmd StartCmd

func Start(ctx context.Context, parser *flags.Parser) error {
	startCmd = StartCmd{}
	_, err := parser.AddCommand("start", "Start a perps node", "Start a perps node using the configuration of the home directory", &startCmd)
	return err
}

func (opts *StartCmd) Execute(_ []string) error {
	rootPath := opts.RootPath()
	cfg, err := config.Read(rootPath)
	if err != nil {
		return err
	}

	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()
	log.Info("starting perps node",
		logging.String("version", version.Get()),
		logging.String("version-hash", version.GetCommitHash()),
		logging.String("home", rootPath))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := config.NewFromFile(ctx, log, rootPath)
	if err != nil {
		return err
	}

	node, err := protocol.New(ctx, watcher, log, rootPath, time.Now())
	if err != nil {
		return err
	}
	defer func() {
		if err := node.Stop(); err != nil {
			log.Error("could not stop node cleanly", logging.Error(err))
		}
	}()

	if err := node.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
