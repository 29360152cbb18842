package bytestream

import "testing"

func TestBufferPoolGetSizing(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(3000)
	if len(buf) != SizeClass4KB {
		t.Fatalf("Get(3000) len = %d, want %d", len(buf), SizeClass4KB)
	}
}

func TestBufferPoolOversizeNotPooled(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(SizeClass64KB + 1)
	if len(buf) != SizeClass64KB+1 {
		t.Fatalf("Get(oversize) len = %d, want %d", len(buf), SizeClass64KB+1)
	}
	// Put on an oversize buffer should not panic and should be a no-op.
	bp.Put(buf)
}

func TestBufferPoolRoundTrip(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(SizeClass8KB)
	buf[0] = 0xAB
	bp.Put(buf)

	again := bp.Get(SizeClass8KB)
	if len(again) != SizeClass8KB {
		t.Fatalf("Get after Put len = %d, want %d", len(again), SizeClass8KB)
	}
}
