/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package words holds the catalog of secret words and the hints handed to
// the impostor, along with a uniform random picker over them.
package words

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Pool is a static catalog of candidate words and their hint pairs.
type Pool struct {
	Words []string
	Hints map[string][2]string
}

// Default returns the built-in catalog.
func Default() *Pool {
	return &Pool{
		Words: []string{
			"alex",
			"siso",
			"cam",
			"charlie",
			"parsa",
			"sina",
			"vietnam",
			"india",
			"pakistan",
			"israel",
			"iran",
			"africa",
			"spain",
			"united kingdom",
			"london",
			"ofm",
			"banana",
			"toaster",
			"llama",
			"socks",
			"leah mae plumber",
		},
		Hints: map[string][2]string{
			// Player names have no hints.
			"alex":    {"", ""},
			"siso":    {"", ""},
			"cam":     {"", ""},
			"charlie": {"", ""},
			"parsa":   {"", ""},
			"sina":    {"", ""},

			"vietnam":        {"pho", "moped"},
			"india":          {"spice", "bollywood"},
			"pakistan":       {"chai", "cricket"},
			"israel":         {"hummus", "desert"},
			"iran":           {"persian", "carpets"},
			"africa":         {"safari", "savanna"},
			"spain":          {"tapas", "flamenco"},
			"united kingdom": {"tea", "royalty"},
			"london":         {"big ben", "tube"},

			"ofm":              {"banana mike", "crew"},
			"banana":           {"ofm", "split"},
			"toaster":          {"crumbs", "pop"},
			"llama":            {"wool", "spit"},
			"socks":            {"mismatch", "laundry"},
			"leah mae plumber": {"smile", "wrench"},
		},
	}
}

// HintsFor returns the hint pair for word, or a pair of empty strings when
// the word has none.
func (p *Pool) HintsFor(word string) [2]string {
	if h, ok := p.Hints[word]; ok {
		return h
	}
	return [2]string{"", ""}
}

// Picker draws uniformly from a Pool. It is safe for concurrent use.
type Picker struct {
	pool *Pool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker returns a Picker over pool. A nil src seeds a PCG generator
// from crypto/rand.
func NewPicker(pool *Pool, src rand.Source) *Picker {
	if pool == nil {
		pool = Default()
	}
	if src == nil {
		var seed [16]byte
		_, _ = crand.Read(seed[:])
		src = rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
	}
	return &Picker{pool: pool, rng: rand.New(src)}
}

// Pool returns the catalog the picker draws from.
func (p *Picker) Pool() *Pool {
	return p.pool
}

func (p *Picker) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// PickWord returns a random word from the pool.
func (p *Picker) PickWord() string {
	if len(p.pool.Words) == 0 {
		return ""
	}
	return p.pool.Words[p.intn(len(p.pool.Words))]
}

// PickHint returns one of the word's hints, or nil when hints are disabled.
func (p *Picker) PickHint(word string, enabled bool) *string {
	if !enabled {
		return nil
	}
	pair := p.pool.HintsFor(word)
	hint := pair[p.intn(len(pair))]
	return &hint
}

// PickImpostor returns a random element of eligible. It panics on an empty
// slice; callers check the eligible count first.
func PickImpostor[T any](p *Picker, eligible []T) T {
	return eligible[p.intn(len(eligible))]
}
