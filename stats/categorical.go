package stats

import (
	"math"
	"sort"
)

// Histogram counts cells per category code. It is built once and never
// modified.
type Histogram struct {
	counts map[int]int
	n      int
}

// NewHistogram counts the valid values of v, rounded to integer codes.
func NewHistogram(v []float64) Histogram {
	h := Histogram{counts: make(map[int]int)}
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		h.counts[int(math.Round(x))]++
		h.n++
	}
	return h
}

func (h Histogram) Count(code int) int { return h.counts[code] }
func (h Histogram) Total() int         { return h.n }

// Codes returns the observed codes in ascending order.
func (h Histogram) Codes() []int {
	k := make([]int, 0, len(h.counts))
	for c := range h.counts {
		k = append(k, c)
	}
	sort.Ints(k)
	return k
}

// Counts returns a copy of the code counts.
func (h Histogram) Counts() map[int]int {
	m := make(map[int]int, len(h.counts))
	for c, n := range h.counts {
		m[c] = n
	}
	return m
}

// Categorical summarises a categorical grid over a basin.
type Categorical struct {
	Majority  int             // most frequent code, lowest code on ties; -1 when empty
	Fractions map[int]float64 // area fraction per code
	N         int
}

// Categorize reduces a histogram to its majority class and class fractions.
func (h Histogram) Categorize() Categorical {
	c := Categorical{Majority: -1, Fractions: make(map[int]float64, len(h.counts)), N: h.n}
	best := 0
	for _, code := range h.Codes() {
		n := h.counts[code]
		c.Fractions[code] = float64(n) / float64(h.n)
		if n > best {
			c.Majority, best = code, n
		}
	}
	return c
}
