package http1

import (
	"bytes"
	"testing"

	"github.com/yourusername/shockwave/pkg/shockwave/bytestream"
)

func TestObjectPoolGetReturnsResetTriple(t *testing.T) {
	pool := NewObjectPool(PoolStrategyStandard)
	triple := pool.Get()
	if triple.Request == nil || triple.Response == nil {
		t.Fatal("Get() returned a Triple with nil fields")
	}
	if triple.Stream != nil {
		t.Fatal("Get() should leave Stream nil until AttachStream")
	}
}

func TestObjectPoolAttachStreamWiresResponse(t *testing.T) {
	pool := NewObjectPool(PoolStrategyStandard)
	triple := pool.Get()
	stream := bytestream.New(&loopConn{r: &bytes.Buffer{}, w: &bytes.Buffer{}}, make([]byte, 64), 64)
	triple.AttachStream(stream)
	if triple.Stream != stream {
		t.Fatal("AttachStream did not store the stream")
	}
	if triple.Response.stream != stream {
		t.Fatal("AttachStream did not point the ResponseWriter at the stream")
	}
}

func TestObjectPoolPutClearsStream(t *testing.T) {
	pool := NewObjectPool(PoolStrategyStandard)
	triple := pool.Get()
	stream := bytestream.New(&loopConn{r: &bytes.Buffer{}, w: &bytes.Buffer{}}, make([]byte, 64), 64)
	triple.AttachStream(stream)
	pool.Put(triple)
	if triple.Stream != nil {
		t.Fatal("Put() should clear Stream before returning to the pool")
	}
}

func TestObjectPoolPerCPUStrategyRoundTrips(t *testing.T) {
	pool := NewObjectPool(PoolStrategyPerCPU)
	triple := pool.Get()
	if triple.Request == nil {
		t.Fatal("per-CPU Get() returned nil Request")
	}
	pool.Put(triple)
}

func TestObjectPoolRequestBufferSizing(t *testing.T) {
	pool := NewObjectPool(PoolStrategyStandard)
	buf := pool.GetRequestBuffer()
	if len(buf) != ParserBufferSize {
		t.Fatalf("len(buf) = %d, want %d", len(buf), ParserBufferSize)
	}
	pool.PutRequestBuffer(buf)
}

func TestObjectPoolRequestBufferRejectsWrongCapacity(t *testing.T) {
	pool := NewObjectPool(PoolStrategyStandard)
	odd := make([]byte, ParserBufferSize+16)
	// Must not panic and must simply decline to retain the buffer.
	pool.PutRequestBuffer(odd)
}

func TestObjectPoolWarmupStandard(t *testing.T) {
	pool := NewObjectPool(PoolStrategyStandard)
	pool.Warmup(4)
	triple := pool.Get()
	if triple == nil {
		t.Fatal("Get() after Warmup returned nil")
	}
}
