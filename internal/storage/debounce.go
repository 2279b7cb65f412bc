package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.SettingsStore = (*Debounced)(nil)

// DefaultDebounce is how long a key must stay unchanged before it is written.
const DefaultDebounce = 500 * time.Millisecond

// Debounced buffers writes per key and forwards only the last value once the
// key has been quiet for the debounce delay. Reads see pending values first,
// so callers never observe a stale read of their own write.
//
// Write failures from the inner store are logged and dropped.
type Debounced struct {
	inner domain.SettingsStore
	delay time.Duration
	log   *logger.Logger

	mu      sync.Mutex
	pending map[string]any
	timers  map[string]*time.Timer
	closed  bool
}

// NewDebounced wraps inner. A non-positive delay selects DefaultDebounce.
func NewDebounced(inner domain.SettingsStore, delay time.Duration, log *logger.Logger) *Debounced {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debounced{
		inner:   inner,
		delay:   delay,
		log:     log,
		pending: make(map[string]any),
		timers:  make(map[string]*time.Timer),
	}
}

// Set records value and (re)starts the key's timer. Never fails.
func (d *Debounced) Set(ctx context.Context, key string, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.inner.Set(ctx, key, value)
	}

	d.pending[key] = value
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() { d.flushKey(key) })
	return nil
}

// Get returns the pending value for key if one exists, else reads through.
func (d *Debounced) Get(ctx context.Context, key string, out any) error {
	d.mu.Lock()
	value, ok := d.pending[key]
	d.mu.Unlock()

	if ok {
		node, err := encodeValue(value)
		if err != nil {
			return err
		}
		return decodeValue(node, out)
	}
	return d.inner.Get(ctx, key, out)
}

// Delete drops any pending write and deletes through.
func (d *Debounced) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
	delete(d.pending, key)
	d.mu.Unlock()
	return d.inner.Delete(ctx, key)
}

// Keys merges pending and persisted keys.
func (d *Debounced) Keys(ctx context.Context) ([]string, error) {
	keys, err := d.inner.Keys(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}

	d.mu.Lock()
	for k := range d.pending {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	d.mu.Unlock()

	sort.Strings(keys)
	return keys, nil
}

// Flush writes every pending value immediately. Call on shutdown.
func (d *Debounced) Flush(ctx context.Context) {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.mu.Unlock()

	for _, k := range keys {
		d.flushKey(k)
	}
}

// Close flushes and makes further writes synchronous.
func (d *Debounced) Close(ctx context.Context) {
	d.Flush(ctx)
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *Debounced) flushKey(key string) {
	d.mu.Lock()
	value, ok := d.pending[key]
	if t, exists := d.timers[key]; exists {
		t.Stop()
		delete(d.timers, key)
	}
	delete(d.pending, key)
	d.mu.Unlock()

	if !ok {
		return
	}
	if err := d.inner.Set(context.Background(), key, value); err != nil {
		d.log.Warn("settings: persisting %s: %v", key, err)
	}
}
