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

package kafka

import (
	"context"
	"encoding/json"
	"strconv"

	"code.vegaprotocol.io/perps/core/events"
	"code.vegaprotocol.io/perps/logging"

	kafkago "github.com/segmentio/kafka-go"
)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/writer_mock.go -package mocks code.vegaprotocol.io/perps/core/broker/kafka Writer
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink publishes bus events to a kafka topic, keyed by market so that
// events of a market stay ordered within a partition.
type Sink struct {
	log *logging.Logger
	w   Writer
}

func New(log *logging.Logger, cfg Config) *Sink {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout.Get(),
		RequiredAcks: kafkago.RequireOne,
		Async:        bool(cfg.Async),
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				log.Error("could not publish events",
					logging.Int("count", len(msgs)),
					logging.Error(err))
			}
		},
	}
	return NewWithWriter(log, w)
}

func NewWithWriter(log *logging.Logger, w Writer) *Sink {
	return &Sink{
		log: log,
		w:   w,
	}
}

func (s *Sink) Write(ctx context.Context, evt *events.BusEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	key := evt.MarketID
	if len(key) == 0 {
		key = evt.Type
	}
	return s.w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(evt.Type)},
			{Key: "seq", Value: []byte(strconv.FormatUint(evt.Sequence, 10))},
		},
	})
}

// Flush is a no-op, batching is handled by the writer.
func (s *Sink) Flush() error {
	return nil
}

func (s *Sink) Close() error {
	return s.w.Close()
}
