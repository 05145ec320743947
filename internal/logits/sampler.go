// Package logits turns a row of target-vocabulary logits into the next token
// during decoding: arg-max when the temperature is zero, otherwise a draw from
// the temperature-scaled distribution restricted by top-k, top-p and min-p.
package logits

import (
	"cmp"
	"math"
	"math/rand"
	"slices"

	"github.com/samcharles93/transl8/internal/tensor"
)

// SamplerConfig configures a Sampler. The zero value is greedy.
type SamplerConfig struct {
	Seed          int64   `json:"seed,omitempty" yaml:"seed"`
	Temperature   float32 `json:"temperature,omitempty" yaml:"temperature"`
	TopK          int     `json:"top_k,omitempty" yaml:"top_k"`
	TopP          float32 `json:"top_p,omitempty" yaml:"top_p"`
	MinP          float32 `json:"min_p,omitempty" yaml:"min_p"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty" yaml:"repeat_penalty"`
}

// Greedy reports whether the config always picks the arg-max.
func (c SamplerConfig) Greedy() bool {
	return c.Temperature <= 0
}

// Sampler is not safe for concurrent use.
type Sampler struct {
	cfg  SamplerConfig
	rng  *rand.Rand
	cand []candidate
	seen map[int]struct{}
}

type candidate struct {
	id int
	p  float64
}

func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = 1
	}
	if cfg.RepeatPenalty <= 0 {
		cfg.RepeatPenalty = 1
	}
	return &Sampler{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		seen: make(map[int]struct{}),
	}
}

func (s *Sampler) Config() SamplerConfig { return s.cfg }

// Sample picks the next id from row. history holds the ids generated so far
// for the same sequence and is used only by the repetition penalty. row is
// modified in place when a penalty applies.
func (s *Sampler) Sample(row []float32, history []int) int {
	if s.cfg.RepeatPenalty != 1 && len(history) > 0 {
		s.penalize(row, history)
	}
	if s.cfg.Greedy() {
		return tensor.Argmax(row)
	}

	s.cand = s.cand[:0]
	maxv := float32(math.Inf(-1))
	for _, v := range row {
		maxv = max(maxv, v)
	}
	inv := 1 / float64(s.cfg.Temperature)
	var sum float64
	for id, v := range row {
		p := math.Exp(float64(v-maxv) * inv)
		s.cand = append(s.cand, candidate{id: id, p: p})
		sum += p
	}
	if sum == 0 || math.IsNaN(sum) {
		return tensor.Argmax(row)
	}
	slices.SortFunc(s.cand, func(a, b candidate) int {
		if c := cmp.Compare(b.p, a.p); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	keep := len(s.cand)
	if s.cfg.TopK > 0 {
		keep = min(keep, s.cfg.TopK)
	}
	if s.cfg.MinP > 0 {
		threshold := s.cand[0].p * float64(s.cfg.MinP)
		for keep > 1 && s.cand[keep-1].p < threshold {
			keep--
		}
	}
	kept := 0.0
	for _, c := range s.cand[:keep] {
		kept += c.p
	}
	if s.cfg.TopP < 1 {
		var cum float64
		for i, c := range s.cand[:keep] {
			cum += c.p / kept
			if cum >= float64(s.cfg.TopP) {
				keep = i + 1
				break
			}
		}
		kept = 0
		for _, c := range s.cand[:keep] {
			kept += c.p
		}
	}

	r := s.rng.Float64() * kept
	var cum float64
	for _, c := range s.cand[:keep] {
		cum += c.p
		if r < cum {
			return c.id
		}
	}
	return s.cand[keep-1].id
}

// penalize divides positive logits (multiplies negative ones) of every id
// already present in history.
func (s *Sampler) penalize(row []float32, history []int) {
	clear(s.seen)
	for _, id := range history {
		if id < 0 || id >= len(row) {
			continue
		}
		if _, dup := s.seen[id]; dup {
			continue
		}
		s.seen[id] = struct{}{}
		if row[id] > 0 {
			row[id] /= s.cfg.RepeatPenalty
		} else {
			row[id] *= s.cfg.RepeatPenalty
		}
	}
}
