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

package config

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"code.vegaprotocol.io/perps/core/markets"
	"code.vegaprotocol.io/perps/core/types"
	"code.vegaprotocol.io/perps/logging"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

const namedLogger = "cfgwatcher"

// Watcher is looking for updates in the configuration and markets files.
type Watcher struct {
	log         *logging.Logger
	cfg         Config
	mkts        []*types.Market
	path        string
	marketsPath string

	cfgChanged  atomic.Bool
	mktsChanged atomic.Bool

	cfgUpdateListeners     []func(Config)
	marketsUpdateListeners []func(context.Context, []*types.Market)
	mu                     sync.Mutex
}

// NewFromFile instantiate a new watcher from the files of rootPath.
func NewFromFile(ctx context.Context, log *logging.Logger, rootPath string) (*Watcher, error) {
	watcherlog := log.Named(namedLogger)
	// set this logger to debug level as we want to be notified for any configuration changes at any time
	watcherlog.SetLevel(logging.DebugLevel)
	w := &Watcher{
		log:  watcherlog,
		cfg:  NewDefaultConfig(),
		path: filepath.Join(rootPath, configFileName),
	}

	if err := w.loadConfig(); err != nil {
		return nil, err
	}
	w.marketsPath = w.cfg.MarketsPath(rootPath)
	if err := w.loadMarkets(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range []string{w.path, w.marketsPath} {
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	w.log.Info("config watcher started successfully",
		logging.String("config", w.path),
		logging.String("markets", w.marketsPath))

	go w.watch(ctx, watcher)

	return w, nil
}

// OnTimeUpdate dispatches the changes seen since the previous call.
func (w *Watcher) OnTimeUpdate(ctx context.Context, _ time.Time) {
	if w.cfgChanged.CompareAndSwap(true, false) {
		cfg := w.Get()
		w.mu.Lock()
		fns := append([]func(Config){}, w.cfgUpdateListeners...)
		w.mu.Unlock()
		for _, f := range fns {
			f(cfg)
		}
	}
	if w.mktsChanged.CompareAndSwap(true, false) {
		mkts := w.Markets()
		w.mu.Lock()
		fns := append([]func(context.Context, []*types.Market){}, w.marketsUpdateListeners...)
		w.mu.Unlock()
		for _, f := range fns {
			f(ctx, mkts)
		}
	}
}

// Get return the last update of the configuration
func (w *Watcher) Get() Config {
	w.mu.Lock()
	conf := w.cfg
	w.mu.Unlock()
	return conf
}

// Markets returns the last markets file read.
func (w *Watcher) Markets() []*types.Market {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*types.Market, 0, len(w.mkts))
	for _, m := range w.mkts {
		out = append(out, m.DeepClone())
	}
	return out
}

// OnConfigUpdate register a function to be called when the configuration is getting updated
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	w.cfgUpdateListeners = append(w.cfgUpdateListeners, fns...)
	w.mu.Unlock()
}

// OnMarketsUpdate register a function to be called when the markets file
// changed.
func (w *Watcher) OnMarketsUpdate(fns ...func(context.Context, []*types.Market)) {
	w.mu.Lock()
	w.marketsUpdateListeners = append(w.marketsUpdateListeners, fns...)
	w.mu.Unlock()
}

func (w *Watcher) loadConfig() error {
	cfg := NewDefaultConfig()
	if _, err := toml.DecodeFile(w.path, &cfg); err != nil {
		return err
	}
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	return nil
}

func (w *Watcher) loadMarkets() error {
	mkts, err := markets.LoadFile(w.marketsPath)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.mkts = mkts
	w.mu.Unlock()
	return nil
}

func (w *Watcher) reload(name string) {
	switch filepath.Clean(name) {
	case filepath.Clean(w.path):
		if err := w.loadConfig(); err != nil {
			w.log.Error("unable to load configuration", logging.Error(err))
			return
		}
		w.cfgChanged.Store(true)
	case filepath.Clean(w.marketsPath):
		if err := w.loadMarkets(); err != nil {
			w.log.Error("unable to load markets", logging.Error(err))
			return
		}
		w.mktsChanged.Store(true)
	}
}

func (w *Watcher) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event := <-watcher.Events:
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				if event.Has(fsnotify.Rename) {
					// editors replace the file through a rename, the new
					// file is not always there yet
					time.Sleep(50 * time.Millisecond)
					if err := watcher.Add(event.Name); err != nil {
						w.log.Warn("unable to watch file again",
							logging.String("file", event.Name),
							logging.Error(err))
					}
				}
				w.log.Info("configuration updated", logging.String("event", event.Name))
				w.reload(event.Name)
			}
		case err := <-watcher.Errors:
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			w.log.Debug("config watcher ctx done")
			return
		}
	}
}
