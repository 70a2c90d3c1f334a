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

import (
	"fmt"
	"time"

	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/libs/num"

	"go.uber.org/zap"
)

// Binary constructs a field that carries an opaque binary blob.
func Binary(key string, value []byte) zap.Field {
	return zap.Binary(key, value)
}

// Bool constructs a field that carries a bool.
func Bool(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}

// Float64 constructs a field that carries a float64.
func Float64(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

// Int constructs a field with the given key and value.
func Int(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, value int64) zap.Field {
	return zap.Int64(key, value)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, value uint64) zap.Field {
	return zap.Uint64(key, value)
}

// String constructs a field with the given key and value.
func String(key string, value string) zap.Field {
	return zap.String(key, value)
}

// Strings constructs a field with the given key and value.
func Strings(key string, value []string) zap.Field {
	return zap.Strings(key, value)
}

// Duration constructs a field with the given key and value.
func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// Time display a time.
func Time(key string, t time.Time) zap.Field {
	return zap.Time(key, t)
}

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(err error) zap.Field {
	return zap.Error(err)
}

// BigUint constructs a field with the given key and value.
func BigUint(key string, value *num.Uint) zap.Field {
	if value == nil {
		return zap.String(key, "nil")
	}
	return zap.String(key, value.String())
}

// BigInt constructs a field with the given key and value.
func BigInt(key string, value *num.Int) zap.Field {
	if value == nil {
		return zap.String(key, "nil")
	}
	return zap.String(key, value.String())
}

// Decimal constructs a field with the given key and value.
func Decimal(key string, value num.Decimal) zap.Field {
	return zap.String(key, value.String())
}

// MarketID constructs a field with the given key and value.
func MarketID(id string) zap.Field {
	return zap.String("market-id", id)
}

// PartyID constructs a field with the given key and value.
func PartyID(id string) zap.Field {
	return zap.String("party", id)
}

// OrderID constructs a field with the given key and value.
func OrderID(id string) zap.Field {
	return zap.String("order-id", id)
}

// TraceID logs the trace id of the operation.
func TraceID(id string) zap.Field {
	return zap.String("trace-id", id)
}

// Order constructs a field with the given key and value.
func Order(o *types.Order) zap.Field {
	if o == nil {
		return zap.String("order", "nil")
	}
	return zap.String("order", o.String())
}

// Trade constructs a field with the given key and value.
func Trade(t *types.Trade) zap.Field {
	if t == nil {
		return zap.String("trade", "nil")
	}
	return zap.String("trade", t.String())
}

// Position constructs a field with the given key and value.
func Position(p *types.Position) zap.Field {
	if p == nil {
		return zap.String("position", "nil")
	}
	return zap.String("position", p.String())
}

// Reflect constructs a field by running reflection over all the
// field of value passed as a parameter.
func Reflect(key string, value interface{}) zap.Field {
	return zap.String(key, fmt.Sprintf("%#v", value))
}
