package pure

import (
	"sync"
)

// Trie is a bounded memo table keyed by argument paths.
//
// It keeps two generations. Stores go to the head generation; once the head
// holds maxSize entries the generations swap and the new head starts empty,
// so at most 2*maxSize results are retained. Loads consult both.
type Trie[O any] struct {
	mu      sync.RWMutex
	memos   [2]*sync.Map
	headIdx int
	size    uint32
	maxSize uint32
}

func (t *Trie[O]) Load(keys []ComparableOrString) (O, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, idx := range []int{t.headIdx, 1 - t.headIdx} {
		if m, k, ok := lookup(t.memos[idx], keys); ok {
			if v, ok := m.Load(k); ok {
				return v.(O), true
			}
		}
	}
	var zero O
	return zero, false
}

func (t *Trie[O]) Store(keys []ComparableOrString, value O) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.size >= t.maxSize {
		t.headIdx = 1 - t.headIdx
		t.memos[t.headIdx] = &sync.Map{}
		t.size = 0
	}
	m, k := traverse(t.memos[t.headIdx], keys)
	if _, loaded := m.Swap(k, value); !loaded {
		t.size++
	}
}

// lookup walks keys without creating intermediate nodes.
func lookup(targetMap *sync.Map, keys []ComparableOrString) (*sync.Map, any, bool) {
	length := len(keys)
	if length == 0 {
		panic("lookup: empty keys")
	}
	for _, k := range keys[:length-1] {
		v, ok := targetMap.Load(k)
		if !ok {
			return nil, nil, false
		}
		targetMap = v.(*sync.Map)
	}
	return targetMap, keys[length-1], true
}

// traverse walks keys, creating intermediate nodes as needed.
func traverse(targetMap *sync.Map, keys []ComparableOrString) (*sync.Map, any) {
	length := len(keys)
	if length == 0 {
		panic("traverse: empty keys")
	}
	for _, k := range keys[:length-1] {
		v, _ := targetMap.LoadOrStore(k, &sync.Map{})
		targetMap = v.(*sync.Map)
	}
	return targetMap, keys[length-1]
}

func NewTrie[O any](maxSize uint32) *Trie[O] {
	if maxSize == 0 {
		panic("maxSize should be greater than 0")
	}
	return &Trie[O]{
		memos:   [2]*sync.Map{{}, {}},
		maxSize: maxSize,
	}
}
