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

package broker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"code.vegaprotocol.io/perps/core/events"
)

// maxJournalLine bounds the size of a single journal entry when reading.
const maxJournalLine = 4 * 1024 * 1024

// FileSink appends events to a JSON lines journal.
type FileSink struct {
	mu         sync.Mutex
	f          *os.File
	w          *bufio.Writer
	enc        *json.Encoder
	pending    int
	flushEvery int
}

func NewFileSink(path string, flushEvery int) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %s: %w", path, err)
	}
	if flushEvery < 1 {
		flushEvery = 1
	}
	w := bufio.NewWriter(f)
	return &FileSink{
		f:          f,
		w:          w,
		enc:        json.NewEncoder(w),
		flushEvery: flushEvery,
	}, nil
}

func (s *FileSink) Write(_ context.Context, evt *events.BusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(evt); err != nil {
		return err
	}
	s.pending++
	return nil
}

// Flush writes buffered events once enough of them are pending.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending < s.flushEvery {
		return nil
	}
	return s.flush()
}

func (s *FileSink) flush() error {
	s.pending = 0
	return s.w.Flush()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flush(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// ReadJournal calls fn for every event of the journal at path, in order.
func ReadJournal(path string, fn func(*events.BusEvent) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return DecodeJournal(f, fn)
}

// DecodeJournal calls fn for every event read from r.
func DecodeJournal(r io.Reader, fn func(*events.BusEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJournalLine)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		evt := &events.BusEvent{}
		if err := json.Unmarshal(scanner.Bytes(), evt); err != nil {
			return fmt.Errorf("journal line %d: %w", line, err)
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
	return scanner.Err()
}
