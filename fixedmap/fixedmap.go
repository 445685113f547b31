package fixedmap

import (
	"sync"
	"time"
)

// Node is a double linked list node.
// Note: wrote this before I saw container/list but then that one isn't using generics so this is better anyway.
type Node[K, V any] struct {
	Key      K
	Value    V
	LastUsed time.Time
	Next     *Node[K, V]
	Prev     *Node[K, V]
}

// FixedMap is a size bounded map that evicts the least recently used entry.
// Safe for concurrent use.
type FixedMap[K comparable, V any] struct {
	Max  int
	Map  map[K]*Node[K, V]
	Head *Node[K, V]
	Tail *Node[K, V]
	lock sync.Mutex
}

// NewFixedMap initializes a new FixedMap with a given maximum size.
func NewFixedMap[K comparable, V any](maxV int) *FixedMap[K, V] {
	if maxV < 2 {
		panic("max must be at least 2")
	}
	return &FixedMap[K, V]{
		Max: maxV,
		Map: make(map[K]*Node[K, V]),
	}
}

// Add adds a new key to the FixedMap, evicting the least recently used if necessary
// Returns the evicted node and a boolean indicating if the key was new.
func (fs *FixedMap[K, V]) Add(key K, value V) (*Node[K, V], bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if node, exists := fs.Map[key]; exists {
		node.Value = value
		fs.moveToHead(node)
		return nil, false
	}
	// Create a new node
	node := &Node[K, V]{
		Key:   key,
		Value: value,
	}
	// Add to map and linked list
	fs.Map[key] = node
	fs.addToFront(node)
	// Check if we need to evict
	if len(fs.Map) > fs.Max {
		return fs.evict(), true
	}
	return nil, true
}

// Get retrieves a key from the FixedMap and updates its position.
func (fs *FixedMap[K, V]) Get(key K) (v V, found bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if node, exists := fs.Map[key]; exists {
		fs.moveToHead(node)
		return node.Value, true
	}
	return v, found // zero values, ie not found
}

// Remove deletes key, returning its value and whether it was present.
func (fs *FixedMap[K, V]) Remove(key K) (v V, found bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	node, exists := fs.Map[key]
	if !exists {
		return v, false
	}
	fs.unlink(node)
	delete(fs.Map, key)
	return node.Value, true
}

// Peek retrieves a key without changing its position (no "use").
func (fs *FixedMap[K, V]) Peek(key K) (v V, found bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if node, exists := fs.Map[key]; exists {
		return node.Value, true
	}
	return v, false
}

// Len is the current number of entries.
func (fs *FixedMap[K, V]) Len() int {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return len(fs.Map)
}

// Values returns the values from most to least recently used.
func (fs *FixedMap[K, V]) Values() []V {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	res := make([]V, 0, len(fs.Map))
	for node := fs.Head; node != nil; node = node.Next {
		res = append(res, node.Value)
	}
	return res
}

// unlink takes node out of the list, fixing Head and Tail.
func (fs *FixedMap[K, V]) unlink(node *Node[K, V]) {
	if node.Prev != nil {
		node.Prev.Next = node.Next
	} else {
		fs.Head = node.Next
	}
	if node.Next != nil {
		node.Next.Prev = node.Prev
	} else {
		fs.Tail = node.Prev
	}
	node.Next = nil
	node.Prev = nil
}

func (fs *FixedMap[K, V]) addToFront(node *Node[K, V]) {
	node.LastUsed = time.Now()
	if fs.Head == nil { // empty list
		fs.Head = node
		fs.Tail = node
		return
	}
	fs.setNodeToHead(node)
}

func (fs *FixedMap[K, V]) setNodeToHead(node *Node[K, V]) {
	node.Next = fs.Head
	fs.Head.Prev = node
	fs.Head = node
}

// moveToHead moves a given node to the head of the list
// and updates the LastUsed time.
func (fs *FixedMap[K, V]) moveToHead(node *Node[K, V]) {
	node.LastUsed = time.Now()
	if fs.Head == node {
		return // already at head, most recently used
	}
	fs.unlink(node) // not the head so the list stays non empty
	fs.setNodeToHead(node)
}

// evict removes the least recently used (tail) node from the list and map.
func (fs *FixedMap[K, V]) evict() *Node[K, V] {
	if fs.Tail == nil {
		panic("evict called on empty list")
	}
	evictedNode := fs.Tail
	fs.unlink(evictedNode) // also clears the links so we don't leak
	delete(fs.Map, evictedNode.Key)
	return evictedNode
}
