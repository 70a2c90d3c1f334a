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

package protocol

import (
	"context"
	"time"

	"code.vegaprotocol.io/perps/config"
	"code.vegaprotocol.io/perps/core/service"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/metrics"

	"github.com/blang/semver"
	"golang.org/x/sync/errgroup"
)

var Version = semver.MustParse("0.1.0")

// watchInterval is how often configuration and markets file changes are
// dispatched to the engines.
const watchInterval = time.Second

// Protocol is a running perpetuals node: the engines wired together behind
// the service layer.
type Protocol struct {
	log         *logging.Logger
	confWatcher *config.Watcher

	services *allServices
}

func New(
	ctx context.Context,
	confWatcher *config.Watcher,
	log *logging.Logger,
	rootPath string,
	now time.Time,
) (p *Protocol, err error) {
	defer func() {
		if err != nil {
			log.Error("unable to start protocol", logging.Error(err))
		}
	}()

	svcs, err := newServices(ctx, log, confWatcher, rootPath, now)
	if err != nil {
		return nil, err
	}

	return &Protocol{
		log:         log,
		confWatcher: confWatcher,
		services:    svcs,
	}, nil
}

// Service is the entry point of every client request.
func (n *Protocol) Service() *service.Service {
	return n.services.service
}

func (n *Protocol) Protocol() semver.Version {
	return Version
}

// Start runs the engines until ctx is cancelled or one of them fails.
func (n *Protocol) Start(ctx context.Context) error {
	if err := metrics.Start(ctx, n.log, n.services.conf.Metrics); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.services.executionEngine.Start(gctx) })
	g.Go(func() error {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case t := <-ticker.C:
				n.confWatcher.OnTimeUpdate(gctx, t)
			}
		}
	})

	n.log.Info("perps node started",
		logging.String("protocol-version", Version.String()),
		logging.Strings("markets", n.services.executionEngine.Markets()))
	return g.Wait()
}

// Stop flushes the event sinks.
func (n *Protocol) Stop() error {
	n.log.Info("stopping perps node")
	return n.services.Stop()
}
