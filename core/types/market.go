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

package types

import (
	"fmt"
	"time"

	"code.vegaprotocol.io/perps/libs/num"
)

type LiquidationParameters struct {
	// PartialThreshold is the notional above which a position is only
	// partially liquidated per step.
	PartialThreshold *num.Uint
	PartialFraction  num.Decimal
	PenaltyRate      num.Decimal
	MaxSteps         int
}

type FundingParameters struct {
	Interval          time.Duration
	PremiumMultiplier num.Decimal
	InterestRate      num.Decimal
	RateCap           num.Decimal
	// IndexFeed is the oracle market ID supplying the index price.
	IndexFeed string
}

type BreakerWindow struct {
	Window    time.Duration
	Threshold num.Decimal
}

type CircuitBreakerParameters struct {
	Windows  []BreakerWindow
	Cooldown time.Duration
}

// Market is the immutable configuration of a perpetual market. Updates
// produce a new value with a higher Version.
type Market struct {
	ID                    string
	Version               uint64
	TickSize              *num.Uint
	LotSize               uint64
	MaxLeverage           num.Decimal
	InitialMarginRate     num.Decimal
	MaintenanceMarginRate num.Decimal
	MakerFeeRate          num.Decimal
	TakerFeeRate          num.Decimal
	MaxOrderSize          uint64
	MaxPositionSize       uint64
	MaxMarketOrderLevels  int
	Liquidation           LiquidationParameters
	Funding               FundingParameters
	CircuitBreaker        CircuitBreakerParameters
}

func (m Market) DeepClone() *Market {
	cpy := m
	if m.TickSize != nil {
		cpy.TickSize = m.TickSize.Clone()
	}
	if m.Liquidation.PartialThreshold != nil {
		cpy.Liquidation.PartialThreshold = m.Liquidation.PartialThreshold.Clone()
	}
	cpy.CircuitBreaker.Windows = append([]BreakerWindow(nil), m.CircuitBreaker.Windows...)
	return &cpy
}

// InitialRate returns the margin rate required to open exposure: the
// greater of the initial margin rate and 1 / max leverage.
func (m *Market) InitialRate() num.Decimal {
	rate := m.InitialMarginRate
	if m.MaxLeverage.IsPositive() {
		rate = num.MaxD(rate, num.DecimalOne().Div(m.MaxLeverage))
	}
	return rate
}

// ValidatePrice checks a limit price is positive and on the tick grid.
func (m *Market) ValidatePrice(price *num.Uint) error {
	if price == nil || price.IsZero() {
		return OrderErrorInvalidPrice
	}
	if m.TickSize != nil && !m.TickSize.IsZero() && !num.UintZero().Mod(price, m.TickSize).IsZero() {
		return OrderErrorInvalidTickSize
	}
	return nil
}

// ValidateSize checks an order size against the lot and order ceiling.
func (m *Market) ValidateSize(size uint64) error {
	if size == 0 {
		return OrderErrorInvalidSize
	}
	if m.LotSize > 0 && size%m.LotSize != 0 {
		return OrderErrorInvalidLotSize
	}
	if m.MaxOrderSize > 0 && size > m.MaxOrderSize {
		return OrderErrorSizeAboveMaximum
	}
	return nil
}

// Validate checks the configuration is internally consistent.
func (m *Market) Validate() error {
	switch {
	case len(m.ID) == 0:
		return fmt.Errorf("%w: market id is required", ErrInvalidMarketConfig)
	case m.TickSize == nil || m.TickSize.IsZero():
		return fmt.Errorf("%w: %s tick size must be positive", ErrInvalidMarketConfig, m.ID)
	case m.LotSize == 0:
		return fmt.Errorf("%w: %s lot size must be positive", ErrInvalidMarketConfig, m.ID)
	case !m.MaintenanceMarginRate.IsPositive():
		return fmt.Errorf("%w: %s maintenance margin rate must be positive", ErrInvalidMarketConfig, m.ID)
	case m.InitialMarginRate.LessThan(m.MaintenanceMarginRate):
		return fmt.Errorf("%w: %s initial margin rate below maintenance", ErrInvalidMarketConfig, m.ID)
	case m.MakerFeeRate.IsNegative() || m.TakerFeeRate.IsNegative():
		return fmt.Errorf("%w: %s fee rates cannot be negative", ErrInvalidMarketConfig, m.ID)
	case m.Liquidation.PartialFraction.IsNegative() || m.Liquidation.PartialFraction.GreaterThan(num.DecimalOne()):
		return fmt.Errorf("%w: %s partial fraction must be within [0, 1]", ErrInvalidMarketConfig, m.ID)
	}
	for _, w := range m.CircuitBreaker.Windows {
		if w.Window <= 0 || !w.Threshold.IsPositive() {
			return fmt.Errorf("%w: %s circuit breaker windows need a positive length and threshold", ErrInvalidMarketConfig, m.ID)
		}
	}
	return nil
}

func (m Market) String() string {
	return fmt.Sprintf(
		"ID(%s) version(%v) tickSize(%s) lotSize(%v) maxLeverage(%s) initialMarginRate(%s) maintenanceMarginRate(%s) makerFeeRate(%s) takerFeeRate(%s) maxOrderSize(%v) maxPositionSize(%v)",
		m.ID,
		m.Version,
		uintPointerToString(m.TickSize),
		m.LotSize,
		m.MaxLeverage.String(),
		m.InitialMarginRate.String(),
		m.MaintenanceMarginRate.String(),
		m.MakerFeeRate.String(),
		m.TakerFeeRate.String(),
		m.MaxOrderSize,
		m.MaxPositionSize,
	)
}
