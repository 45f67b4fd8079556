package sample

import "github.com/hrygo/poplog/store"

// step is one entry of a cumulative threshold table: a draw below limit
// selects value.
type step[T any] struct {
	limit float64
	value T
}

// table is a discrete distribution given as ascending cumulative thresholds.
// Draws at or above the last limit select fallback.
type table[T any] struct {
	steps    []step[T]
	fallback T
}

func (t table[T]) pick(r float64) T {
	for _, s := range t.steps {
		if r < s.limit {
			return s.value
		}
	}
	return t.fallback
}

// shape holds the per-kind daily count and category distributions.
type shape struct {
	counts   table[int]
	category table[store.Category]
	// burst adds one more event with probability burst when the count draw
	// reaches the fallback bucket.
	burst float64
}

func (s shape) count(rnd RandSource) int {
	r := rnd.Float64()
	n := s.counts.pick(r)
	if s.burst > 0 && n == s.counts.fallback && rnd.Float64() < s.burst {
		n++
	}
	return n
}

var shapes = map[Kind]shape{
	KindNormal: {
		counts: table[int]{
			steps:    []step[int]{{0.10, 0}, {0.85, 1}, {0.97, 2}},
			fallback: 3,
		},
		category: table[store.Category]{
			steps: []step[store.Category]{
				{0.54, store.CategoryIdeal},
				{0.75, store.CategorySoft},
				{0.86, store.CategoryHard},
				{0.95, store.CategoryMushy},
			},
			fallback: store.CategoryWatery,
		},
	},
	KindAbnormal: {
		counts: table[int]{
			steps:    []step[int]{{0.55, 0}, {0.90, 1}},
			fallback: 2,
		},
		category: table[store.Category]{
			steps: []step[store.Category]{
				{0.50, store.CategoryHard},
				{0.70, store.CategoryIdeal},
				{0.85, store.CategorySoft},
				{0.95, store.CategoryMushy},
			},
			fallback: store.CategoryWatery,
		},
	},
	KindOver: {
		counts: table[int]{
			steps:    []step[int]{{0.15, 2}, {0.70, 3}, {0.90, 4}},
			fallback: 5,
		},
		category: table[store.Category]{
			steps: []step[store.Category]{
				{0.15, store.CategoryIdeal},
				{0.35, store.CategorySoft},
				{0.70, store.CategoryMushy},
			},
			fallback: store.CategoryWatery,
		},
		burst: 0.4,
	},
}
