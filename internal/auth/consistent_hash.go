package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

// HashRing spreads token cache keys over a fixed set of node identifiers
// so cache entries stay evenly distributed when nodes are added.
type HashRing struct {
	hash       func(data []byte) uint32
	replicas   int
	keys       []int // sorted virtual node hashes
	hashMap    map[int]string
	mu         sync.RWMutex
	nodeLookup map[string]struct{}
}

// NewHashRing builds a ring; with no nodes a single default node is used
// so lookups never fail.
func NewHashRing(nodes []string, replicas int) *HashRing {
	if replicas <= 0 {
		replicas = 50
	}
	if len(nodes) == 0 {
		nodes = []string{"auth-node-default"}
	}
	r := &HashRing{
		hash:       crc32.ChecksumIEEE,
		replicas:   replicas,
		hashMap:    make(map[int]string),
		nodeLookup: make(map[string]struct{}),
	}
	r.Add(nodes...)
	return r
}

// Add registers nodes on the ring, ignoring duplicates.
func (r *HashRing) Add(nodes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		if _, exists := r.nodeLookup[node]; exists {
			continue
		}
		r.nodeLookup[node] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			hash := int(r.hash([]byte(node + "#" + strconv.Itoa(i))))
			r.keys = append(r.keys, hash)
			r.hashMap[hash] = node
		}
	}
	sort.Ints(r.keys)
}

// Node returns the node responsible for key.
func (r *HashRing) Node(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.keys) == 0 {
		return ""
	}
	hash := int(r.hash([]byte(key)))
	idx := sort.Search(len(r.keys), func(i int) bool { return r.keys[i] >= hash })
	if idx == len(r.keys) {
		idx = 0
	}
	return r.hashMap[r.keys[idx]]
}
