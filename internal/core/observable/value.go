package observable

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultGrace is how long a value stays warm after its last subscriber leaves.
const DefaultGrace = time.Second

// Loader reads the current value from its backing source.
type Loader[T any] func() (T, error)

// Options tunes a Value.
type Options struct {
	Clock clockwork.Clock
	Grace time.Duration
	// OnLoadError receives errors from the loader. The cached value is kept.
	OnLoadError func(error)
}

// Value is a subscribable scalar backed by a loader. While it has
// subscribers, or during the grace window after the last one left, reads are
// served from the cached value and publishes fan out to subscribers.
type Value[T comparable] struct {
	mu          sync.Mutex
	load        Loader[T]
	clock       clockwork.Clock
	grace       time.Duration
	onLoadError func(error)

	value     T
	active    bool
	subs      map[uint64]chan T
	nextID    uint64
	teardown  clockwork.Timer
	teardowns uint64
}

// New creates a value that starts from initial until first loaded.
func New[T comparable](initial T, load Loader[T], options Options) *Value[T] {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Grace < 0 {
		options.Grace = 0
	}
	return &Value[T]{
		load:        load,
		clock:       options.Clock,
		grace:       options.Grace,
		onLoadError: options.OnLoadError,
		value:       initial,
		subs:        make(map[uint64]chan T),
	}
}

// Value returns the cached value while active, otherwise a fresh load.
func (v *Value[T]) Value() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.active {
		v.refreshLocked()
	}
	return v.value
}

// Subscribe registers an observer. The channel receives the current value
// right away and is conflated: a slow reader only sees the latest value.
// The returned function unsubscribes and closes the channel.
func (v *Value[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	v.mu.Lock()
	v.cancelTeardownLocked()
	if !v.active {
		v.refreshLocked()
		v.active = true
	}
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	ch <- v.value
	v.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.unsubscribe(id)
		})
	}
}

// Publish stores value and notifies subscribers when it changed.
func (v *Value[T]) Publish(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if value == v.value {
		return
	}
	v.value = value
	for _, ch := range v.subs {
		offer(ch, value)
	}
}

// Active reports whether the value is serving from its cache.
func (v *Value[T]) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// SubscriberCount returns the number of live subscriptions.
func (v *Value[T]) SubscriberCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

func (v *Value[T]) unsubscribe(id uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch, ok := v.subs[id]
	if !ok {
		return
	}
	delete(v.subs, id)
	close(ch)
	if len(v.subs) > 0 {
		return
	}
	if v.grace == 0 {
		v.active = false
		return
	}
	v.teardowns++
	generation := v.teardowns
	v.teardown = v.clock.AfterFunc(v.grace, func() {
		v.expire(generation)
	})
}

func (v *Value[T]) expire(generation uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.teardowns || len(v.subs) > 0 {
		return
	}
	v.teardown = nil
	v.active = false
}

func (v *Value[T]) cancelTeardownLocked() {
	if v.teardown == nil {
		return
	}
	v.teardown.Stop()
	v.teardown = nil
	v.teardowns++
}

func (v *Value[T]) refreshLocked() {
	if v.load == nil {
		return
	}
	loaded, err := v.load()
	if err != nil {
		if v.onLoadError != nil {
			v.onLoadError(err)
		}
		return
	}
	v.value = loaded
}

func offer[T any](ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- value:
	default:
	}
}
