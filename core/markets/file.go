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

package markets

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"code.vegaprotocol.io/perps/config/encoding"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// File is the on-disk form of the market definitions. Amounts are human
// readable decimals, scaled on load.
type File struct {
	Markets []Definition `toml:"market"`
}

type Definition struct {
	ID                    string                `toml:"id"`
	TickSize              string                `toml:"tick_size"`
	LotSize               string                `toml:"lot_size"`
	MaxLeverage           string                `toml:"max_leverage"`
	InitialMarginRate     string                `toml:"initial_margin_rate"`
	MaintenanceMarginRate string                `toml:"maintenance_margin_rate"`
	MakerFeeRate          string                `toml:"maker_fee_rate"`
	TakerFeeRate          string                `toml:"taker_fee_rate"`
	MaxOrderSize          string                `toml:"max_order_size"`
	MaxPositionSize       string                `toml:"max_position_size"`
	MaxMarketOrderLevels  int                   `toml:"max_market_order_levels"`
	Liquidation           LiquidationDefinition `toml:"liquidation"`
	Funding               FundingDefinition     `toml:"funding"`
	CircuitBreaker        BreakerDefinition     `toml:"circuit_breaker"`
}

type LiquidationDefinition struct {
	PartialThreshold string `toml:"partial_threshold"`
	PartialFraction  string `toml:"partial_fraction"`
	PenaltyRate      string `toml:"penalty_rate"`
	MaxSteps         int    `toml:"max_steps"`
}

type FundingDefinition struct {
	Interval          encoding.Duration `toml:"interval"`
	PremiumMultiplier string            `toml:"premium_multiplier"`
	InterestRate      string            `toml:"interest_rate"`
	RateCap           string            `toml:"rate_cap"`
	IndexFeed         string            `toml:"index_feed"`
}

type BreakerDefinition struct {
	Cooldown encoding.Duration  `toml:"cooldown"`
	Windows  []WindowDefinition `toml:"window"`
}

type WindowDefinition struct {
	Window    encoding.Duration `toml:"window"`
	Threshold string            `toml:"threshold"`
}

// LoadFile reads and validates a markets file.
func LoadFile(path string) ([]*types.Market, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read markets file at %s", path)
	}
	mkts, err := Decode(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid markets file at %s", path)
	}
	return mkts, nil
}

func Decode(buf []byte) ([]*types.Market, error) {
	var f File
	if _, err := toml.NewDecoder(bytes.NewReader(buf)).Decode(&f); err != nil {
		return nil, err
	}
	out := make([]*types.Market, 0, len(f.Markets))
	seen := map[string]struct{}{}
	for _, d := range f.Markets {
		m, err := d.ToMarket()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[m.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate market %s", types.ErrInvalidMarketConfig, m.ID)
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

// Encode writes the market definitions in file form.
func Encode(w io.Writer, mkts []*types.Market) error {
	f := File{Markets: make([]Definition, 0, len(mkts))}
	for _, m := range mkts {
		f.Markets = append(f.Markets, DefinitionFromMarket(m))
	}
	return toml.NewEncoder(w).Encode(f)
}

type parser struct {
	market string
	err    error
}

func (p *parser) fixed(field, s string) *num.Uint {
	if p.err != nil || len(s) == 0 {
		return nil
	}
	u, err := num.ParseFixed(s)
	if err != nil {
		p.err = fmt.Errorf("%w: %s %s: %v", types.ErrInvalidMarketConfig, p.market, field, err)
	}
	return u
}

func (p *parser) size(field, s string) uint64 {
	if u := p.fixed(field, s); u != nil && p.err == nil {
		if !u.IsUint64() {
			p.err = fmt.Errorf("%w: %s %s overflows", types.ErrInvalidMarketConfig, p.market, field)
			return 0
		}
		return u.Uint64()
	}
	return 0
}

func (p *parser) decimal(field, s string) num.Decimal {
	if p.err != nil || len(s) == 0 {
		return num.DecimalZero()
	}
	d, err := num.DecimalFromString(s)
	if err != nil {
		p.err = fmt.Errorf("%w: %s %s: %v", types.ErrInvalidMarketConfig, p.market, field, err)
	}
	return d
}

// ToMarket converts and validates a definition.
func (d Definition) ToMarket() (*types.Market, error) {
	p := &parser{market: d.ID}
	m := &types.Market{
		ID:                    d.ID,
		TickSize:              p.fixed("tick_size", d.TickSize),
		LotSize:               p.size("lot_size", d.LotSize),
		MaxLeverage:           p.decimal("max_leverage", d.MaxLeverage),
		InitialMarginRate:     p.decimal("initial_margin_rate", d.InitialMarginRate),
		MaintenanceMarginRate: p.decimal("maintenance_margin_rate", d.MaintenanceMarginRate),
		MakerFeeRate:          p.decimal("maker_fee_rate", d.MakerFeeRate),
		TakerFeeRate:          p.decimal("taker_fee_rate", d.TakerFeeRate),
		MaxOrderSize:          p.size("max_order_size", d.MaxOrderSize),
		MaxPositionSize:       p.size("max_position_size", d.MaxPositionSize),
		MaxMarketOrderLevels:  d.MaxMarketOrderLevels,
		Liquidation: types.LiquidationParameters{
			PartialThreshold: p.fixed("liquidation.partial_threshold", d.Liquidation.PartialThreshold),
			PartialFraction:  p.decimal("liquidation.partial_fraction", d.Liquidation.PartialFraction),
			PenaltyRate:      p.decimal("liquidation.penalty_rate", d.Liquidation.PenaltyRate),
			MaxSteps:         d.Liquidation.MaxSteps,
		},
		Funding: types.FundingParameters{
			Interval:          d.Funding.Interval.Get(),
			PremiumMultiplier: p.decimal("funding.premium_multiplier", d.Funding.PremiumMultiplier),
			InterestRate:      p.decimal("funding.interest_rate", d.Funding.InterestRate),
			RateCap:           p.decimal("funding.rate_cap", d.Funding.RateCap),
			IndexFeed:         d.Funding.IndexFeed,
		},
		CircuitBreaker: types.CircuitBreakerParameters{
			Cooldown: d.CircuitBreaker.Cooldown.Get(),
		},
	}
	for i, w := range d.CircuitBreaker.Windows {
		m.CircuitBreaker.Windows = append(m.CircuitBreaker.Windows, types.BreakerWindow{
			Window:    w.Window.Get(),
			Threshold: p.decimal(fmt.Sprintf("circuit_breaker.window[%d].threshold", i), w.Threshold),
		})
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func formatSize(s uint64) string {
	return num.FormatFixed(num.NewUint(s))
}

func formatFixed(u *num.Uint) string {
	if u == nil {
		return ""
	}
	return num.FormatFixed(u)
}

func DefinitionFromMarket(m *types.Market) Definition {
	d := Definition{
		ID:                    m.ID,
		TickSize:              formatFixed(m.TickSize),
		LotSize:               formatSize(m.LotSize),
		MaxLeverage:           m.MaxLeverage.String(),
		InitialMarginRate:     m.InitialMarginRate.String(),
		MaintenanceMarginRate: m.MaintenanceMarginRate.String(),
		MakerFeeRate:          m.MakerFeeRate.String(),
		TakerFeeRate:          m.TakerFeeRate.String(),
		MaxOrderSize:          formatSize(m.MaxOrderSize),
		MaxPositionSize:       formatSize(m.MaxPositionSize),
		MaxMarketOrderLevels:  m.MaxMarketOrderLevels,
		Liquidation: LiquidationDefinition{
			PartialThreshold: formatFixed(m.Liquidation.PartialThreshold),
			PartialFraction:  m.Liquidation.PartialFraction.String(),
			PenaltyRate:      m.Liquidation.PenaltyRate.String(),
			MaxSteps:         m.Liquidation.MaxSteps,
		},
		Funding: FundingDefinition{
			Interval:          encoding.Duration{Duration: m.Funding.Interval},
			PremiumMultiplier: m.Funding.PremiumMultiplier.String(),
			InterestRate:      m.Funding.InterestRate.String(),
			RateCap:           m.Funding.RateCap.String(),
			IndexFeed:         m.Funding.IndexFeed,
		},
		CircuitBreaker: BreakerDefinition{
			Cooldown: encoding.Duration{Duration: m.CircuitBreaker.Cooldown},
		},
	}
	for _, w := range m.CircuitBreaker.Windows {
		d.CircuitBreaker.Windows = append(d.CircuitBreaker.Windows, WindowDefinition{
			Window:    encoding.Duration{Duration: w.Window},
			Threshold: w.Threshold.String(),
		})
	}
	return d
}

// DefaultMarkets is the market set written by the init command.
func DefaultMarkets() []*types.Market {
	return []*types.Market{
		{
			ID:                    "BTC-PERP",
			TickSize:              num.MustParseFixed("0.01"),
			LotSize:               num.MustParseFixedSize("0.001"),
			MaxLeverage:           num.MustDecimalFromString("20"),
			InitialMarginRate:     num.MustDecimalFromString("0.05"),
			MaintenanceMarginRate: num.MustDecimalFromString("0.006"),
			MakerFeeRate:          num.MustDecimalFromString("0.0002"),
			TakerFeeRate:          num.MustDecimalFromString("0.0005"),
			MaxOrderSize:          num.MustParseFixedSize("100"),
			MaxPositionSize:       num.MustParseFixedSize("1000"),
			MaxMarketOrderLevels:  20,
			Liquidation: types.LiquidationParameters{
				PartialThreshold: num.MustParseFixed("1000000"),
				PartialFraction:  num.MustDecimalFromString("0.25"),
				PenaltyRate:      num.MustDecimalFromString("0.01"),
				MaxSteps:         4,
			},
			Funding: types.FundingParameters{
				Interval:          8 * time.Hour,
				PremiumMultiplier: num.DecimalOne(),
				InterestRate:      num.MustDecimalFromString("0.0001"),
				RateCap:           num.MustDecimalFromString("0.0075"),
				IndexFeed:         "BTC-INDEX",
			},
			CircuitBreaker: types.CircuitBreakerParameters{
				Windows: []types.BreakerWindow{
					{Window: time.Minute, Threshold: num.MustDecimalFromString("0.05")},
					{Window: 15 * time.Minute, Threshold: num.MustDecimalFromString("0.1")},
					{Window: time.Hour, Threshold: num.MustDecimalFromString("0.2")},
				},
				Cooldown: 5 * time.Minute,
			},
		},
	}
}
