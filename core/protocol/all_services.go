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
	"path/filepath"
	"time"

	"code.vegaprotocol.io/perps/config"
	"code.vegaprotocol.io/perps/core/auth"
	"code.vegaprotocol.io/perps/core/broker"
	"code.vegaprotocol.io/perps/core/broker/kafka"
	"code.vegaprotocol.io/perps/core/execution"
	"code.vegaprotocol.io/perps/core/insurance"
	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/core/oracle"
	"code.vegaprotocol.io/perps/core/service"
	"code.vegaprotocol.io/perps/logging"

	"github.com/pkg/errors"
)

type allServices struct {
	ctx         context.Context
	log         *logging.Logger
	conf        config.Config
	confWatcher *config.Watcher

	broker          *broker.Broker
	oracle          *oracle.Engine
	markets         *markets.Provider
	insurance       *insurance.Pool
	executionEngine *execution.Engine
	authoriser      *auth.Static
	service         *service.Service
}

func newServices(
	ctx context.Context,
	log *logging.Logger,
	confWatcher *config.Watcher,
	rootPath string,
	now time.Time,
) (_ *allServices, err error) {
	svcs := &allServices{
		ctx:         ctx,
		log:         log,
		confWatcher: confWatcher,
		conf:        confWatcher.Get(),
	}

	brokerCfg := svcs.conf.Broker
	if !filepath.IsAbs(brokerCfg.Journal.Path) {
		brokerCfg.Journal.Path = filepath.Join(rootPath, brokerCfg.Journal.Path)
	}
	if svcs.broker, err = broker.New(ctx, log, brokerCfg); err != nil {
		return nil, errors.Wrap(err, "unable to initialise broker")
	}
	defer func() {
		if err != nil {
			_ = svcs.broker.Close()
		}
	}()
	if svcs.conf.Kafka.Enabled {
		svcs.broker.AddSink(kafka.New(log, svcs.conf.Kafka))
	}

	svcs.oracle = oracle.New(log, svcs.conf.Oracle, svcs.broker)

	if svcs.markets, err = markets.New(log, svcs.conf.Markets, svcs.broker, confWatcher.Markets()); err != nil {
		return nil, errors.Wrap(err, "invalid markets")
	}
	if svcs.insurance, err = insurance.New(log, svcs.conf.Insurance); err != nil {
		return nil, errors.Wrap(err, "invalid insurance configuration")
	}

	svcs.executionEngine, err = execution.New(
		log, svcs.conf.Execution, svcs.markets, svcs.oracle, svcs.insurance, svcs.broker, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialise execution engine")
	}

	if svcs.authoriser, err = auth.NewStatic(log, svcs.conf.Auth); err != nil {
		return nil, errors.Wrap(err, "invalid grants")
	}
	svcs.service = service.New(
		log, svcs.conf.Service, svcs.authoriser, svcs.executionEngine, svcs.oracle, svcs.markets,
	)

	svcs.registerConfigWatchers()
	return svcs, nil
}

func (svcs *allServices) registerConfigWatchers() {
	svcs.confWatcher.OnConfigUpdate(
		func(cfg config.Config) { svcs.executionEngine.ReloadConf(svcs.ctx, cfg.Execution) },
		func(cfg config.Config) { svcs.oracle.ReloadConf(cfg.Oracle) },
		func(cfg config.Config) { svcs.markets.ReloadConf(cfg.Markets) },
		func(cfg config.Config) { svcs.authoriser.ReloadConf(cfg.Auth) },
		func(cfg config.Config) { svcs.service.ReloadConf(cfg.Service) },
	)
	svcs.confWatcher.OnMarketsUpdate(svcs.markets.OnMarketsFile)
}

func (svcs *allServices) Stop() error {
	return svcs.broker.Close()
}
