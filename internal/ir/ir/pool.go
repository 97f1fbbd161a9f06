package ir

// pool is a page-allocated arena for a single value type, grounded
// directly on the teacher's ssa.pool[T] (internal/engine/wazevo/ssa/pool.go):
// stable pointers into fixed-size pages, dense index-based lookup, and an
// O(1) reset for reuse. All cross-referencing IR structures (instructions,
// values, basic blocks) are identified by dense integer ids into arenas
// like this one, never by direct pointer (spec.md §9).
type pool[T any] struct {
	pages            []*[poolPageSize]T
	allocated, index int
}

const poolPageSize = 128

func newPool[T any]() pool[T] {
	var p pool[T]
	p.index = poolPageSize
	return p
}

func (p *pool[T]) allocate() (*T, int) {
	if p.index == poolPageSize {
		p.pages = append(p.pages, new([poolPageSize]T))
		p.index = 0
	}
	idx := p.allocated
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret, idx
}

func (p *pool[T]) view(i int) *T {
	page, index := i/poolPageSize, i%poolPageSize
	return &p.pages[page][index]
}

func (p *pool[T]) len() int { return p.allocated }
