package regalloc

// pool is the same page-allocated, pointer-stable arena used by
// package ir (internal/ir/ir/pool.go), reproduced here for the
// machine-level instruction/block arenas: the original Rust codegen
// crate keeps its own separate id_arena::Arena per machine Data
// (original_source/codegen/src/codegen/function/data.rs), and a
// cross-package generic type can't be shared without exporting package
// ir's arena internals, which the IR layer has no reason to expose.
type pool[T any] struct {
	pages [][]T
}

const poolPageSize = 128

func newPool[T any]() pool[T] { return pool[T]{} }

func (p *pool[T]) allocate() (*T, int) {
	if len(p.pages) == 0 || len(p.pages[len(p.pages)-1]) == poolPageSize {
		p.pages = append(p.pages, make([]T, 0, poolPageSize))
	}
	last := &p.pages[len(p.pages)-1]
	*last = append(*last, *new(T))
	idx := (len(p.pages)-1)*poolPageSize + len(*last) - 1
	return &(*last)[len(*last)-1], idx
}

func (p *pool[T]) view(i int) *T {
	page, offset := i/poolPageSize, i%poolPageSize
	return &p.pages[page][offset]
}

func (p *pool[T]) len() int {
	if len(p.pages) == 0 {
		return 0
	}
	return (len(p.pages)-1)*poolPageSize + len(p.pages[len(p.pages)-1])
}
