// Package engine hands compiled programs from a control thread to a
// real-time thread.
//
// Compilation runs off the real-time path. Each successful compile is
// published into a single slot that the real-time side reads with Poll,
// which never blocks. A failed compile publishes nothing, so the previous
// program keeps running until a new one succeeds.
//
// Identical sources are compiled once: concurrent requests share one
// compilation, and finished modules are kept in a small cache keyed by the
// BLAKE2b hash of the source.
package engine

import (
	"container/list"
	"context"
	"encoding/hex"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/audiobench/nodespeak"
	"github.com/audiobench/nodespeak/llvmir"
)

// Key identifies a source text.
type Key [blake2b.Size256]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:8])
}

// KeyOf hashes source.
func KeyOf(source string) Key {
	return blake2b.Sum256([]byte(source))
}

// Artifact is a published program.
type Artifact struct {
	Key    Key
	Module *llvmir.Module
	// Seq orders submissions. A published artifact is never replaced by
	// one from an earlier submission.
	Seq uint64
}

// Result is delivered by Submit.
type Result struct {
	Artifact *Artifact
	// Published is false when a newer submission had already been
	// published by the time this one finished.
	Published bool
	Err       error
}

// Config configures an Engine.
type Config struct {
	Options nodespeak.Options

	// CacheSize bounds the number of compiled modules kept. Zero disables
	// the cache.
	CacheSize int

	// Logger receives progress messages. Defaults to a logger on the
	// standard logger's output with an "[engine] " prefix.
	Logger *log.Logger
}

// DefaultConfig returns the default compile options with a small module
// cache. New takes its Config as given, so a zero Config compiles without
// loop unrolling and caches nothing.
func DefaultConfig() Config {
	return Config{
		Options:   nodespeak.DefaultOptions(),
		CacheSize: 16,
	}
}

// Engine compiles sources and publishes the results.
type Engine struct {
	opts   nodespeak.Options
	logger *log.Logger

	current atomic.Pointer[Artifact]
	seq     atomic.Uint64
	group   singleflight.Group
	wg      sync.WaitGroup

	mu    sync.Mutex
	cache *moduleCache
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[engine] ", log.Flags())
	}
	return &Engine{
		opts:   cfg.Options,
		logger: logger,
		cache:  newModuleCache(cfg.CacheSize),
	}
}

// Poll returns the live artifact, or nil before the first successful
// compile. It never blocks and is safe to call from the real-time thread.
func (e *Engine) Poll() *Artifact {
	return e.current.Load()
}

// Submit compiles source in the background. The returned channel receives
// exactly one Result.
func (e *Engine) Submit(ctx context.Context, source string) <-chan Result {
	seq := e.seq.Add(1)
	out := make(chan Result, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		out <- e.compile(ctx, source, seq)
	}()
	return out
}

// Compile compiles source on the calling goroutine and publishes it.
func (e *Engine) Compile(ctx context.Context, source string) (*Artifact, error) {
	r := e.compile(ctx, source, e.seq.Add(1))
	return r.Artifact, r.Err
}

// Wait blocks until every submitted compile has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) compile(ctx context.Context, source string, seq uint64) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	key := KeyOf(source)

	mod, err := e.module(ctx, key, source)
	if err != nil {
		e.logger.Printf("compile %s failed: %v", key, err)
		return Result{Err: err}
	}

	a := &Artifact{Key: key, Module: mod, Seq: seq}
	published := e.publish(a)
	if published {
		e.logger.Printf("published %s (submission %d)", key, seq)
	} else {
		e.logger.Printf("dropped %s: submission %d is stale", key, seq)
	}
	return Result{Artifact: a, Published: published}
}

// module returns the compiled module for source, from the cache or by
// joining or starting a compilation.
func (e *Engine) module(ctx context.Context, key Key, source string) (*llvmir.Module, error) {
	e.mu.Lock()
	mod, ok := e.cache.get(key)
	e.mu.Unlock()
	if ok {
		e.logger.Printf("cache hit for %s", key)
		return mod, nil
	}

	ch := e.group.DoChan(string(key[:]), func() (interface{}, error) {
		// A compile of the same source may have finished since the
		// lookup above.
		e.mu.Lock()
		mod, ok := e.cache.get(key)
		e.mu.Unlock()
		if ok {
			return mod, nil
		}
		e.logger.Printf("compiling %s (%d bytes)", key, len(source))
		mod, err := nodespeak.CompileWithOptions(source, e.opts)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache.put(key, mod)
		e.mu.Unlock()
		return mod, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*llvmir.Module), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// publish installs a unless a later submission is already live.
func (e *Engine) publish(a *Artifact) bool {
	for {
		old := e.current.Load()
		if old != nil && old.Seq > a.Seq {
			return false
		}
		if e.current.CompareAndSwap(old, a) {
			return true
		}
	}
}

// moduleCache is a least-recently-used map from source hash to module.
type moduleCache struct {
	limit int
	order *list.List
	items map[Key]*list.Element
}

type cacheEntry struct {
	key Key
	mod *llvmir.Module
}

func newModuleCache(limit int) *moduleCache {
	return &moduleCache{limit: limit, order: list.New(), items: map[Key]*list.Element{}}
}

func (c *moduleCache) get(key Key) (*llvmir.Module, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).mod, true
}

func (c *moduleCache) put(key Key, mod *llvmir.Module) {
	if c.limit <= 0 {
		return
	}
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).mod = mod
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, mod: mod})
	for c.order.Len() > c.limit {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*cacheEntry).key)
	}
}

func (c *moduleCache) len() int {
	return c.order.Len()
}
