package orchestrator

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// configWatchDebounce coalesces the burst of write events most editors and
// `cp`/`mv`-based config deploys generate for a single logical save.
const configWatchDebounce = 200 * time.Millisecond

// WatchConfig watches path for changes and live-applies speed, wait_acc,
// and cache_size edits to the running simulation (SPEC_FULL.md §1's
// optional hot-reload). Only those three keys take effect without a
// restart; anything else requires re-running. Returns a stop function the
// caller should defer, and an error if the watch could not be established.
//
// The other recognized keys (method, proxy_type, trace/db paths, topology
// lag/bandwidth) need the topology rebuilt or the replay queue re-seeded
// to apply safely, so edits to them are logged and otherwise ignored.
func (o *Orchestrator) WatchConfig(path string) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go o.runConfigWatch(watcher, path, done)

	return func() {
		watcher.Close()
		<-done
	}, nil
}

func (o *Orchestrator) runConfigWatch(watcher *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)

	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if pending == nil {
				pending = time.AfterFunc(configWatchDebounce, func() { o.reloadConfig(path) })
			} else {
				pending.Reset(configWatchDebounce)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if o.log != nil {
				o.log.Warn("config watch error", "error", werr)
			}
		}
	}
}

// reloadConfig re-reads path and applies whichever of speed, wait_acc, and
// cache_size changed, updating o.cfg to match so later reloads diff against
// the latest applied values. A parse failure is logged and the running
// configuration is left in place rather than aborting the simulation.
func (o *Orchestrator) reloadConfig(path string) {
	fresh, err := LoadConfig(path)
	if err != nil {
		if o.log != nil {
			o.log.Warn("config reload failed, keeping previous values", "error", err)
		}
		return
	}

	if fresh.Speed != o.cfg.Speed {
		o.clock.SetSpeed(fresh.Speed)
		o.cfg.Speed = fresh.Speed
		o.logReload("speed", fresh.Speed)
	}
	if fresh.WaitAcc != o.cfg.WaitAcc {
		o.clock.SetWaitAcc(fresh.WaitAcc)
		o.cfg.WaitAcc = fresh.WaitAcc
		o.logReload("wait_acc", fresh.WaitAcc)
	}
	if fresh.CacheSize != o.cfg.CacheSize {
		if o.topo != nil && o.topo.Proxy != nil {
			o.topo.Proxy.SetCacheSizeKb(fresh.CacheSize)
		}
		o.cfg.CacheSize = fresh.CacheSize
		o.logReload("cache_size", fresh.CacheSize)
	}
}

func (o *Orchestrator) logReload(key string, value float64) {
	if o.log != nil {
		o.log.Info("applied config reload", "key", key, "value", value)
	}
}
