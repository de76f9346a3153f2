package tree

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Id and display-name suffix lengths.
const (
	LayoutIDLen      = 10
	ElementIDLen     = 8
	LayoutSuffixLen  = 6
	ElementSuffixLen = 4
)

// Allocator hands out node ids and display names for one generation run.
// Ids are never repeated; neither are display names. The zero value is not
// usable; call [NewAllocator].
type Allocator struct {
	mu    sync.Mutex
	ids   map[string]bool
	names map[string]bool
	rand  func() string
}

// NewAllocator returns an allocator drawing from random UUIDs.
func NewAllocator() *Allocator {
	return newAllocator(randomHex)
}

func newAllocator(src func() string) *Allocator {
	return &Allocator{
		ids:   map[string]bool{RootID: true},
		names: map[string]bool{rootDisplayName: true},
		rand:  src,
	}
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// LayoutID returns a fresh id for a layout node.
func (a *Allocator) LayoutID() string { return a.id(LayoutIDLen) }

// ElementID returns a fresh id for an element node.
func (a *Allocator) ElementID() string { return a.id(ElementIDLen) }

// DisplayName returns a fresh label "<prefix>-<suffix>". Layout labels get a
// longer suffix than element labels.
func (a *Allocator) DisplayName(prefix string, layout bool) string {
	n := ElementSuffixLen
	if layout {
		n = LayoutSuffixLen
	}
	prefix = strings.ToLower(prefix)
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		name := prefix + "-" + a.rand()[:n]
		if !a.names[name] {
			a.names[name] = true
			return name
		}
	}
}

func (a *Allocator) id(n int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		id := a.rand()[:n]
		if !a.ids[id] {
			a.ids[id] = true
			return id
		}
	}
}

// Reserve marks id as taken so the allocator never returns it.
func (a *Allocator) Reserve(id string) {
	a.mu.Lock()
	a.ids[id] = true
	a.mu.Unlock()
}

// Len returns the number of ids issued or reserved, including [RootID].
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}
