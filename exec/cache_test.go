package exec

import (
	"sync"
	"testing"

	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

func testIdentity(path scene.Path) OutputKeyIdentity {
	return OutputKeyIdentity{ProviderPath: path, Definition: timeDefinition{}}
}

func TestCacheFirstWriterWins(t *testing.T) {
	net := network.New()
	var cache compiledOutputCache
	key := testIdentity("/A")

	const n = 8
	nodes := make([]*network.Node, n)
	for i := range nodes {
		nodes[i] = net.NewNode(network.KindCallback, nil)
	}

	var wg sync.WaitGroup
	wins := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i] = cache.insert(key, network.MaskedOutput{
				Output: nodes[i].Output(),
				Mask:   network.AllOnes(1),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("%d inserts won, want exactly 1", winners)
	}

	// Every reader observes the same masked output regardless of how many
	// tasks raced.
	got, ok := cache.find(key)
	if !ok || got.IsNull() {
		t.Fatal("winner's output must be readable")
	}
	for i := 0; i < 4; i++ {
		again, _ := cache.find(key)
		if again.Output != got.Output {
			t.Fatal("find must be stable")
		}
	}
}

func TestCacheNullMemoDistinctFromAbsent(t *testing.T) {
	var cache compiledOutputCache
	key := testIdentity("/A")

	if _, ok := cache.find(key); ok {
		t.Fatal("absent entry must read as not found")
	}

	// A present-but-null output memoizes "known to have no output".
	if !cache.insert(key, network.MaskedOutput{}) {
		t.Fatal("null memo insert should win")
	}
	got, ok := cache.find(key)
	if !ok {
		t.Fatal("null memo must read as found")
	}
	if !got.IsNull() {
		t.Fatal("null memo must read as a null output")
	}
}

func TestCacheEraseByNodeID(t *testing.T) {
	net := network.New()
	var cache compiledOutputCache

	node := net.NewNode(network.KindCallback, nil)
	other := net.NewNode(network.KindCallback, nil)
	mo := network.MaskedOutput{Output: node.Output(), Mask: network.AllOnes(1)}
	otherMO := network.MaskedOutput{Output: other.Output(), Mask: network.AllOnes(1)}

	cache.insert(testIdentity("/A"), mo)
	cache.insert(testIdentity("/B"), mo)
	cache.insert(testIdentity("/C"), otherMO)

	cache.eraseByNodeID(node.ID())

	for _, path := range []scene.Path{"/A", "/B"} {
		if _, ok := cache.find(testIdentity(path)); ok {
			t.Errorf("entry %q should be purged with its node", path)
		}
	}
	if _, ok := cache.find(testIdentity("/C")); !ok {
		t.Error("entries of other nodes must survive")
	}
}
