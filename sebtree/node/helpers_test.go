package node_test

import (
	"testing"

	"github.com/arvindsridhar/sebtree/internal/pagecache"
	"github.com/arvindsridhar/sebtree/sebtree/encoders"
	"github.com/arvindsridhar/sebtree/sebtree/node"
)

// Geometry fixed by the literal end-to-end scenarios: a 1024-byte page,
// both thresholds at 8 bytes, natural-order 4-byte keys/values.
const (
	testPageBytes     = 1024
	testInlineKeyTh   = 8
	testInlineValTh   = 8
	testRecordsOffset = 53 // sum of header field widths with NextFreePosition == 0
)

func u32Compare(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newTestPage(t *testing.T) *pagecache.Page {
	t.Helper()
	return pagecache.NewPage(pagecache.PageID(1), testPageBytes)
}

func newTestConfig() node.Config {
	return node.Config{
		PageBytes:             testPageBytes,
		NextFreePosition:      0,
		InlineKeysThreshold:   testInlineKeyTh,
		InlineValuesThreshold: testInlineValTh,
		EncodersVersion:       0,
	}
}

func newU32Node(t *testing.T, buf node.PageBuffer) *node.Node[uint32, uint32] {
	t.Helper()
	keyProvider := encoders.NewConstantProvider[uint32](encoders.Uint32Encoder{}, 15)
	valueProvider := encoders.NewConstantProvider[uint32](encoders.Uint32Encoder{}, 15)
	return node.New[uint32, uint32](buf, newTestConfig(), keyProvider, valueProvider, u32Compare)
}

// createU32Leaf creates a fresh leaf node and returns it with no session open.
func createU32Leaf(t *testing.T, buf node.PageBuffer) *node.Node[uint32, uint32] {
	t.Helper()
	n := newU32Node(t, buf)
	n.BeginCreate()
	if err := n.Create(true); err != nil {
		t.Fatalf("Create(leaf): %v", err)
	}
	n.EndWrite()
	return n
}

// newU32StringNode builds a leaf keyed by uint32 with unbound string
// values, forcing values out-of-line regardless of INLINE_VALUES_THRESHOLD.
func newU32StringNode(t *testing.T, buf node.PageBuffer) *node.Node[uint32, string] {
	t.Helper()
	keyProvider := encoders.NewConstantProvider[uint32](encoders.Uint32Encoder{}, 15)
	valueProvider := encoders.NewConstantProvider[string](encoders.NewStringEncoder(64), 15)
	return node.New[uint32, string](buf, newTestConfig(), keyProvider, valueProvider, u32Compare)
}

func createU32Internal(t *testing.T, buf node.PageBuffer) *node.Node[uint32, uint32] {
	t.Helper()
	n := newU32Node(t, buf)
	n.BeginCreate()
	if err := n.Create(false); err != nil {
		t.Fatalf("Create(internal): %v", err)
	}
	n.EndWrite()
	return n
}
