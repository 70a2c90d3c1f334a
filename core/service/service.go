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

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.vegaprotocol.io/perps/core/auth"
	"code.vegaprotocol.io/perps/core/execution"
	"code.vegaprotocol.io/perps/core/oracle"
	"code.vegaprotocol.io/perps/core/types"
	vgcontext "code.vegaprotocol.io/perps/libs/context"
	"code.vegaprotocol.io/perps/libs/num"
	"code.vegaprotocol.io/perps/logging"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/perps/core/service ExecutionEngine,PriceOracle,MarketAdmin

// ExecutionEngine runs the markets.
type ExecutionEngine interface {
	SubmitOrder(ctx context.Context, party string, sub types.OrderSubmission) (*types.OrderConfirmation, error)
	CancelOrder(ctx context.Context, party, marketID, orderID string) (*types.Order, error)
	CancelAllOrders(ctx context.Context, party, marketID string) ([]*types.Order, error)
	AddMargin(ctx context.Context, party, marketID string, amount *num.Uint) error
	RemoveMargin(ctx context.Context, party, marketID string, amount *num.Uint) error
	GetPosition(ctx context.Context, party, marketID string) (*types.Position, error)
	OrderBookSnapshot(ctx context.Context, marketID string, depth int) (*types.BookSnapshot, error)
	MarketData(ctx context.Context, marketID string) (*execution.MarketData, error)
}

// PriceOracle collects the source prices.
type PriceOracle interface {
	SubmitSourcePrice(ctx context.Context, sp *types.SourcePrice) error
}

// MarketAdmin schedules market configuration changes.
type MarketAdmin interface {
	ProposeUpdate(ctx context.Context, mkt *types.Market, effectiveAt time.Time) error
}

// Authoriser tells whether a caller holds a capability.
type Authoriser interface {
	Authorise(caller string, c auth.Capability) error
}

// Service is the boundary of the core: every call is authorised here once
// and reaches the engines already trusted.
type Service struct {
	Config
	log *logging.Logger
	mu  sync.Mutex

	auth    Authoriser
	exec    ExecutionEngine
	oracle  PriceOracle
	markets MarketAdmin
}

func New(
	log *logging.Logger,
	cfg Config,
	authoriser Authoriser,
	exec ExecutionEngine,
	oracle PriceOracle,
	markets MarketAdmin,
) *Service {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Service{
		Config:  cfg,
		log:     log,
		auth:    authoriser,
		exec:    exec,
		oracle:  oracle,
		markets: markets,
	}
}

func (s *Service) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}

	s.mu.Lock()
	s.Config = cfg
	s.mu.Unlock()
}

// authorise checks the caller once and tags the call with a trace ID.
func (s *Service) authorise(ctx context.Context, caller string, c auth.Capability, op string) (context.Context, error) {
	ctx, traceID := vgcontext.TraceIDFromContext(ctx)
	if err := s.auth.Authorise(caller, c); err != nil {
		s.log.Warn("unauthorised call",
			logging.TraceID(traceID),
			logging.PartyID(caller),
			logging.String("operation", op))
		return ctx, err
	}
	if s.log.IsDebug() {
		s.log.Debug("call authorised",
			logging.TraceID(traceID),
			logging.PartyID(caller),
			logging.String("operation", op))
	}
	return ctx, nil
}

func (s *Service) SubmitOrder(ctx context.Context, caller string, sub types.OrderSubmission) (*types.OrderConfirmation, error) {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityTrade, "SubmitOrder")
	if err != nil {
		return nil, err
	}
	return s.exec.SubmitOrder(ctx, caller, sub)
}

func (s *Service) CancelOrder(ctx context.Context, caller, marketID, orderID string) (*types.Order, error) {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityTrade, "CancelOrder")
	if err != nil {
		return nil, err
	}
	return s.exec.CancelOrder(ctx, caller, marketID, orderID)
}

func (s *Service) CancelAllOrders(ctx context.Context, caller, marketID string) ([]*types.Order, error) {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityTrade, "CancelAllOrders")
	if err != nil {
		return nil, err
	}
	return s.exec.CancelAllOrders(ctx, caller, marketID)
}

func (s *Service) AddMargin(ctx context.Context, caller, marketID string, amount *num.Uint) error {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityMargin, "AddMargin")
	if err != nil {
		return err
	}
	return s.exec.AddMargin(ctx, caller, marketID, amount)
}

func (s *Service) RemoveMargin(ctx context.Context, caller, marketID string, amount *num.Uint) error {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityMargin, "RemoveMargin")
	if err != nil {
		return err
	}
	return s.exec.RemoveMargin(ctx, caller, marketID, amount)
}

// GetPosition returns the caller's own position.
func (s *Service) GetPosition(ctx context.Context, caller, marketID string) (*types.Position, error) {
	return s.exec.GetPosition(ctx, caller, marketID)
}

func (s *Service) OrderBookSnapshot(ctx context.Context, marketID string, depth int) (*types.BookSnapshot, error) {
	return s.exec.OrderBookSnapshot(ctx, marketID, depth)
}

func (s *Service) MarketData(ctx context.Context, marketID string) (*execution.MarketData, error) {
	return s.exec.MarketData(ctx, marketID)
}

// SubmitSourcePrice records a report of the caller. A feed can only report
// as itself.
func (s *Service) SubmitSourcePrice(ctx context.Context, caller string, sp *types.SourcePrice) error {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityPriceFeed, "SubmitSourcePrice")
	if err != nil {
		return err
	}
	if sp == nil {
		return fmt.Errorf("%w: missing report", oracle.ErrInvalidReport)
	}
	if len(sp.SourceID) == 0 {
		sp.SourceID = caller
	}
	if sp.SourceID != caller {
		return fmt.Errorf("%w: %s cannot report for source %s", auth.ErrUnauthorised, caller, sp.SourceID)
	}
	return s.oracle.SubmitSourcePrice(ctx, sp)
}

// ProposeMarketUpdate schedules a market change, subject to the timelock.
func (s *Service) ProposeMarketUpdate(ctx context.Context, caller string, mkt *types.Market, effectiveAt time.Time) error {
	ctx, err := s.authorise(ctx, caller, auth.CapabilityAdmin, "ProposeMarketUpdate")
	if err != nil {
		return err
	}
	s.log.Info("market update proposed",
		logging.PartyID(caller),
		logging.MarketID(mkt.ID),
		logging.Time("effective-at", effectiveAt))
	return s.markets.ProposeUpdate(ctx, mkt, effectiveAt)
}
