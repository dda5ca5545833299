// Package kv is the embedded key/value store: an Engine opens a
// directory holding an append-only command log, replays it into an
// in-memory index, and serves durable set/get/remove operations against
// it, compacting the log when garbage accumulates past a threshold.
//
// An Engine is not safe for concurrent use; every operation runs to
// completion on the caller's goroutine before the next one begins.
package kv

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/amanlalwani007/kvs/internal/record"
	"github.com/amanlalwani007/kvs/internal/storeerr"
	"github.com/amanlalwani007/kvs/internal/wal"
)

// DefaultCompactionThreshold is the garbage byte count above which a
// Set or Remove triggers compaction before returning.
const DefaultCompactionThreshold = 1 << 20 // 1 MiB

// Engine is an open key/value store. The zero value is not usable; build
// one with Open.
type Engine struct {
	dir       string
	log       *wal.Log
	index     *wal.Index
	threshold uint64
	logger    *zap.Logger
}

// Option configures an Engine at Open time.
type Option func(*Engine)

// WithCompactionThreshold overrides DefaultCompactionThreshold.
func WithCompactionThreshold(n uint64) Option {
	return func(e *Engine) { e.threshold = n }
}

// WithLogger attaches a zap logger; nil is treated as a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Stats is a read-only snapshot of the engine's bookkeeping, useful for
// tests asserting the store's size invariants directly and for the CLI's
// "stats" subcommand.
type Stats struct {
	Keys    int
	Garbage uint64
	LogSize int64
}

// Open creates dir if it does not exist, selects or creates its active
// log, and replays that log to rebuild the index.
func Open(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		dir:       dir,
		index:     wal.NewIndex(),
		threshold: DefaultCompactionThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeerr.Io.Wrap(err)
	}
	if err := wal.CleanPartialCompactions(dir); err != nil {
		return nil, storeerr.Io.Wrap(err)
	}

	log, err := wal.OpenActive(dir)
	if err != nil {
		return nil, storeerr.Io.Wrap(err)
	}
	e.log = log

	if err := e.replay(); err != nil {
		_ = e.log.Close()
		return nil, err
	}

	e.logger.Info("store opened",
		zap.String("dir", dir),
		zap.Int("log_id", e.log.ID()),
		zap.Int("keys", e.index.Len()),
		zap.Uint64("garbage", e.index.Garbage()),
	)
	return e, nil
}

func (e *Engine) replay() error {
	r, err := e.log.Reader()
	if err != nil {
		return storeerr.Io.Wrap(err)
	}
	defer r.Close()

	dec := record.NewDecoder(r)
	count := 0
	for {
		rec, start, end, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return storeerr.Decoding.Wrap(err)
		}

		ptr := wal.LogPointer{Offset: uint64(start), Size: uint64(end - start)}
		switch {
		case rec.IsSet():
			e.index.Set(rec.Key, ptr)
		case rec.IsRemove():
			e.index.Delete(rec.Key)
		}
		count++
	}

	e.logger.Debug("replay complete",
		zap.Int("records", count),
		zap.Int("keys", e.index.Len()),
		zap.Uint64("garbage", e.index.Garbage()),
	)
	return nil
}

// Set durably records that key now maps to value. A subsequent Get for
// key on this Engine, or on a freshly opened Engine over the same
// directory, returns value.
func (e *Engine) Set(key, value string) error {
	rec := record.NewSet(key, value)
	enc, err := record.Encode(rec)
	if err != nil {
		return err
	}

	offset, err := e.log.Append(enc)
	if err != nil {
		return storeerr.Io.Wrap(err)
	}
	e.index.Set(key, wal.LogPointer{Offset: offset, Size: uint64(len(enc))})

	e.logger.Debug("set", zap.String("key", key), zap.Uint64("offset", offset), zap.Int("size", len(enc)))
	e.maybeCompact()
	return nil
}

// Get returns the value of the most recent Set for key not superseded by
// a Remove. It never mutates the log or the index.
func (e *Engine) Get(key string) (string, bool, error) {
	ptr, ok := e.index.Get(key)
	if !ok {
		return "", false, nil
	}

	raw, err := e.log.ReadAt(ptr.Offset, ptr.Size)
	if err != nil {
		return "", false, storeerr.Io.Wrap(err)
	}
	rec, err := record.DecodeOne(raw)
	if err != nil {
		return "", false, err
	}
	if !rec.IsSet() {
		return "", false, storeerr.Decoding.Wrap(fmt.Errorf("get: indexed record for %q is not a Set", key))
	}
	return rec.Value, true, nil
}

// Remove deletes key. The Remove record is appended to the log before
// the index is checked, so a crash between the two still leaves a
// replayable log: replay will simply observe the key as absent either
// way. If key was already absent, Remove reports NotFound.
func (e *Engine) Remove(key string) error {
	rec := record.NewRemove(key)
	enc, err := record.Encode(rec)
	if err != nil {
		return err
	}
	if _, err := e.log.Append(enc); err != nil {
		return storeerr.Io.Wrap(err)
	}

	if _, existed := e.index.Delete(key); !existed {
		return storeerr.NewNotFound(key)
	}

	e.logger.Debug("remove", zap.String("key", key))
	e.maybeCompact()
	return nil
}

// Compact forces a log compaction regardless of the current garbage
// count. Set and Remove call this automatically once garbage exceeds
// the configured threshold; this is exposed for callers (the CLI's
// "compact" subcommand, tests) that want to force it early.
func (e *Engine) Compact() error {
	if err := e.log.Compact(e.index); err != nil {
		return err
	}
	e.logger.Debug("compacted log written", zap.String("new_log", e.log.Path()))
	e.logger.Info("compaction complete",
		zap.Int("new_log_id", e.log.ID()),
		zap.Int("keys", e.index.Len()),
	)
	return nil
}

// maybeCompact runs a compaction if garbage has exceeded the configured
// threshold. A failed compaction does not fail the Set/Remove call that
// triggered it: the log and index already satisfy the store's invariants
// regardless of whether compaction succeeds, so a failure is only logged.
func (e *Engine) maybeCompact() {
	if e.index.Garbage() <= e.threshold {
		return
	}
	e.logger.Info("garbage threshold exceeded, compacting",
		zap.Uint64("garbage", e.index.Garbage()),
		zap.Uint64("threshold", e.threshold),
	)
	if err := e.Compact(); err != nil {
		e.logger.Warn("compaction failed, continuing on current log", zap.Error(err))
	}
}

// Stats returns a snapshot of the engine's current key count, garbage
// byte count, and active log size.
func (e *Engine) Stats() Stats {
	size, _ := e.log.Size()
	return Stats{
		Keys:    e.index.Len(),
		Garbage: e.index.Garbage(),
		LogSize: size,
	}
}

// Close releases the engine's file handles. It does not flush anything
// beyond what Set/Remove already wrote: every append is already durable
// to the OS as of its own call, and there is no explicit fsync.
func (e *Engine) Close() error {
	if err := e.log.Close(); err != nil {
		return storeerr.Io.Wrap(err)
	}
	return nil
}
