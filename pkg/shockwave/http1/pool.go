package http1

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/yourusername/shockwave/pkg/shockwave/bytestream"
)

// ParserBufferSize is the default size of a connection's input buffer:
// large enough to hold the request line and header block limits with
// no growth for the common case.
const ParserBufferSize = MaxRequestLineSize + MaxHeaderSize

// PoolStrategy selects how ObjectPool distributes its objects across
// goroutines.
type PoolStrategy int

const (
	// PoolStrategyStandard uses a single sync.Pool — the right default
	// for typical request/response hold times.
	PoolStrategyStandard PoolStrategy = iota

	// PoolStrategyPerCPU shards the pool across GOMAXPROCS sync.Pools
	// to cut contention under sustained high concurrency with longer
	// object hold times (e.g. large streamed responses).
	PoolStrategyPerCPU
)

// perCPUPool shards a sync.Pool per CPU, round-robining Get across
// shards to spread contention.
type perCPUPool[T any] struct {
	pools      []*sync.Pool
	numCPU     int
	roundRobin atomic.Uint64
	newFunc    func() T
}

func newPerCPUPool[T any](newFunc func() T) *perCPUPool[T] {
	numCPU := runtime.GOMAXPROCS(0)
	if numCPU < 1 {
		numCPU = 1
	}
	pools := make([]*sync.Pool, numCPU)
	for i := range pools {
		pools[i] = &sync.Pool{New: func() interface{} { return newFunc() }}
	}
	return &perCPUPool[T]{pools: pools, numCPU: numCPU, newFunc: newFunc}
}

func (p *perCPUPool[T]) get() T {
	idx := p.roundRobin.Add(1) % uint64(p.numCPU)
	if obj := p.pools[idx].Get(); obj != nil {
		return obj.(T)
	}
	return p.newFunc()
}

func (p *perCPUPool[T]) put(obj T) {
	idx := p.roundRobin.Load() % uint64(p.numCPU)
	p.pools[idx].Put(obj)
}

func (p *perCPUPool[T]) warmup(countPerShard int) {
	for _, pool := range p.pools {
		for i := 0; i < countPerShard; i++ {
			pool.Put(p.newFunc())
		}
	}
}

// Triple bundles the three pooled objects a connection needs to serve
// one request: the input buffer's owning Stream, the Request it
// parses into, and the ResponseWriter the handler writes through.
// Pooling them together (rather than as three independent pools, the
// way this package's ancestor did it) keeps their lifetimes — which
// are identical, one request each — visibly tied together.
type Triple struct {
	Stream   *bytestream.Stream
	Request  *Request
	Response *ResponseWriter
}

// ObjectPool hands out and reclaims Triples, plus the raw input
// buffers a connection's stream parses request heads into.
type ObjectPool struct {
	strategy PoolStrategy

	std sync.Pool
	pc  *perCPUPool[*Triple]

	buffersStd sync.Pool
}

// NewObjectPool builds a pool using the given strategy.
func NewObjectPool(strategy PoolStrategy) *ObjectPool {
	p := &ObjectPool{strategy: strategy}
	newTriple := func() *Triple {
		return &Triple{
			Request:  &Request{},
			Response: &ResponseWriter{},
		}
	}
	p.std = sync.Pool{New: func() interface{} { return newTriple() }}
	p.pc = newPerCPUPool(newTriple)
	p.buffersStd = sync.Pool{New: func() interface{} {
		buf := make([]byte, ParserBufferSize)
		return &buf
	}}
	return p
}

// Get returns a Triple ready for a fresh connection: its Request and
// Response are reset, but Stream is left nil — the caller must call
// AttachStream once it has a transport to wrap.
func (p *ObjectPool) Get() *Triple {
	var t *Triple
	if p.strategy == PoolStrategyPerCPU {
		t = p.pc.get()
	} else {
		t = p.std.Get().(*Triple)
	}
	t.Request.Reset()
	t.Response.Reset(nil)
	return t
}

// AttachStream stores an already-built stream on the triple and
// resets the ResponseWriter to write through it.
func (t *Triple) AttachStream(stream *bytestream.Stream) {
	t.Stream = stream
	t.Response.Reset(stream)
}

// Put returns a Triple to the pool. The caller must have already
// closed or handed off its Stream — ObjectPool does not own transport
// lifecycle, only the Request/Response/Triple memory.
func (p *ObjectPool) Put(t *Triple) {
	t.Request.Reset()
	t.Stream = nil
	if p.strategy == PoolStrategyPerCPU {
		p.pc.put(t)
	} else {
		p.std.Put(t)
	}
}

// GetRequestBuffer returns a pooled ParserBufferSize-capacity byte
// slice, for bytestream.Stream.SwapInputBuffer to hand to a Request.
func (p *ObjectPool) GetRequestBuffer() []byte {
	buf := p.buffersStd.Get().(*[]byte)
	return (*buf)[:cap(*buf)]
}

// PutRequestBuffer returns a request buffer to the pool. Only buffers
// of the pool's standard capacity are retained; a buffer of any other
// capacity is left for the garbage collector rather than skewing the
// pool's size class.
func (p *ObjectPool) PutRequestBuffer(buf []byte) {
	if cap(buf) != ParserBufferSize {
		return
	}
	buf = buf[:ParserBufferSize]
	p.buffersStd.Put(&buf)
}

// Warmup pre-populates the pool with count Triples (and, for the
// per-CPU strategy, count objects per shard), so the first wave of
// connections after startup doesn't pay allocation cost.
func (p *ObjectPool) Warmup(count int) {
	newTriple := func() *Triple {
		return &Triple{Request: &Request{}, Response: &ResponseWriter{}}
	}
	if p.strategy == PoolStrategyPerCPU {
		p.pc.warmup(count)
		return
	}
	for i := 0; i < count; i++ {
		p.std.Put(newTriple())
	}
}
