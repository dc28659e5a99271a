package engine

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/llvmir"
)

const (
	gainSource = `
input [8]FLOAT samples;
output [8]FLOAT out;
out = samples * 0.5;
`
	halfSource = `
input [8]FLOAT samples;
output [8]FLOAT out;
out = samples / 2.0;
`
	brokenSource = `
input FLOAT x;
output FLOAT y;
y = missing;
`
)

func newTestEngine(t *testing.T, cacheSize int) (*Engine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.CacheSize = cacheSize
	cfg.Logger = log.New(&buf, "[engine] ", 0)
	return New(cfg), &buf
}

func TestPollBeforeCompile(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	if a := e.Poll(); a != nil {
		t.Errorf("Poll() = %v, want nil", a)
	}
}

func TestSubmitPublishes(t *testing.T) {
	e, logs := newTestEngine(t, 4)
	r := <-e.Submit(context.Background(), gainSource)
	if r.Err != nil {
		t.Fatalf("Submit failed: %v", r.Err)
	}
	if !r.Published {
		t.Error("the only submission should be published")
	}
	live := e.Poll()
	if live != r.Artifact {
		t.Fatalf("Poll() = %p, want the submitted artifact %p", live, r.Artifact)
	}
	if live.Key != KeyOf(gainSource) {
		t.Errorf("Key = %s, want %s", live.Key, KeyOf(gainSource))
	}
	if !strings.Contains(live.Module.String(), "fmul float") {
		t.Error("published module does not contain the gain multiply")
	}
	for _, want := range []string{"[engine] compiling", "[engine] published"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}
}

func TestFailureKeepsPrevious(t *testing.T) {
	e, logs := newTestEngine(t, 4)
	good, err := e.Compile(context.Background(), gainSource)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	r := <-e.Submit(context.Background(), brokenSource)
	if r.Err == nil {
		t.Fatal("expected the broken source to fail")
	}
	if !errors.Is(r.Err, diag.Of(diag.NoEntityWithName)) {
		t.Errorf("got %v, want a NoEntityWithName problem", r.Err)
	}
	if e.Poll() != good {
		t.Error("a failed compile replaced the live artifact")
	}
	if !strings.Contains(logs.String(), "failed") {
		t.Errorf("log does not mention the failure:\n%s", logs)
	}
}

func TestCacheHit(t *testing.T) {
	e, logs := newTestEngine(t, 4)
	first, err := e.Compile(context.Background(), gainSource)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	second, err := e.Compile(context.Background(), gainSource)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if first.Module != second.Module {
		t.Error("identical sources should share a module")
	}
	if second.Seq <= first.Seq {
		t.Errorf("Seq = %d after %d, want it to grow", second.Seq, first.Seq)
	}
	if e.Poll() != second {
		t.Error("the later artifact should be live")
	}
	if got := strings.Count(logs.String(), "compiling"); got != 1 {
		t.Errorf("compiled %d times, want 1", got)
	}
	if !strings.Contains(logs.String(), "cache hit") {
		t.Errorf("log does not mention the cache hit:\n%s", logs)
	}
}

func TestCacheEviction(t *testing.T) {
	e, logs := newTestEngine(t, 1)
	ctx := context.Background()
	for _, src := range []string{gainSource, halfSource, gainSource} {
		if _, err := e.Compile(ctx, src); err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
	}
	if got := strings.Count(logs.String(), "compiling"); got != 3 {
		t.Errorf("compiled %d times, want 3", got)
	}
	if got := e.cache.len(); got != 1 {
		t.Errorf("cache holds %d modules, want 1", got)
	}
}

func TestCacheDisabled(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	if _, err := e.Compile(context.Background(), gainSource); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := e.cache.len(); got != 0 {
		t.Errorf("cache holds %d modules, want 0", got)
	}
}

func TestConcurrentSubmitsShareModule(t *testing.T) {
	e, logs := newTestEngine(t, 4)
	const n = 8
	results := make([]<-chan Result, n)
	for i := range results {
		results[i] = e.Submit(context.Background(), gainSource)
	}
	e.Wait()

	var mod *llvmir.Module
	for i, ch := range results {
		r := <-ch
		if r.Err != nil {
			t.Fatalf("submission %d failed: %v", i, r.Err)
		}
		if mod == nil {
			mod = r.Artifact.Module
		} else if r.Artifact.Module != mod {
			t.Errorf("submission %d got a different module", i)
		}
	}
	if got := strings.Count(logs.String(), "compiling"); got != 1 {
		t.Errorf("compiled %d times, want 1", got)
	}
	if live := e.Poll(); live == nil || live.Seq != n {
		t.Errorf("live artifact = %+v, want submission %d", live, n)
	}
}

func TestStaleResultNotPublished(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	newer := &Artifact{Key: KeyOf(halfSource), Seq: 5}
	older := &Artifact{Key: KeyOf(gainSource), Seq: 3}
	if !e.publish(newer) {
		t.Fatal("first publish should succeed")
	}
	if e.publish(older) {
		t.Error("an older submission replaced a newer one")
	}
	if e.Poll() != newer {
		t.Error("live artifact changed")
	}
}

func TestCanceledContext(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := <-e.Submit(ctx, gainSource)
	if !errors.Is(r.Err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", r.Err)
	}
	if e.Poll() != nil {
		t.Error("a canceled submission published an artifact")
	}
}

func TestPollWhileCompiling(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	if _, err := e.Compile(context.Background(), gainSource); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	ch := e.Submit(context.Background(), halfSource)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if e.Poll() == nil {
				t.Error("Poll returned nil after a successful compile")
				return
			}
		}
	}()
	wg.Wait()
	if r := <-ch; r.Err != nil {
		t.Fatalf("Submit failed: %v", r.Err)
	}
	if e.Poll().Key != KeyOf(halfSource) {
		t.Error("the new program was not published")
	}
}

func TestZeroConfig(t *testing.T) {
	var buf bytes.Buffer
	e := New(Config{Logger: log.New(&buf, "", 0)})
	if e.opts.Unroll {
		t.Error("a zero Config should not enable unrolling")
	}
	if _, err := e.Compile(context.Background(), gainSource); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := e.cache.len(); got != 0 {
		t.Errorf("cache holds %d modules, want 0", got)
	}

	def := DefaultConfig()
	if !def.Options.Unroll || def.CacheSize <= 0 {
		t.Errorf("DefaultConfig() = %+v, want unrolling and a cache", def)
	}
}

func TestKeyString(t *testing.T) {
	k := KeyOf("x")
	if got := k.String(); len(got) != 16 {
		t.Errorf("Key.String() = %q, want 16 hex digits", got)
	}
	if KeyOf("x") != k || KeyOf("y") == k {
		t.Error("KeyOf should depend only on the source")
	}
}
