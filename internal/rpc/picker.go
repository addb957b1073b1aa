// Package rpc chooses which JSON-RPC endpoint a session talks to.
package rpc

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint can be used.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm selects how Pick chooses among endpoints.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Endpoints more than this many blocks behind the best are stale.
	staleBlockThreshold = 3
	// How long a fastest-pick winner is reused.
	cacheTTL = 5 * time.Minute
)

// ParseAlgorithm maps a config value to an Algorithm. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFastest, nil
	case AlgorithmFastest, AlgorithmRoundRobin, AlgorithmFailover:
		return a, nil
	}
	return "", errors.New("unknown rpc algorithm " + s + " (want fastest, round-robin or failover)")
}

// Endpoint is one RPC URL with what a probe measured about it.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // only meaningful when Checked
	Checked     bool
}

// Picker selects an endpoint according to its algorithm. It is safe for
// concurrent use.
type Picker struct {
	algo Algorithm

	mu          sync.Mutex
	next        int
	winner      string
	winnerUntil time.Time
}

// NewPicker creates a Picker.
func NewPicker(algo Algorithm) *Picker {
	if algo == "" {
		algo = AlgorithmFastest
	}
	return &Picker{algo: algo}
}

// Algorithm returns how the picker chooses.
func (p *Picker) Algorithm() Algorithm { return p.algo }

// Select returns the URL the picker prefers among urls. A single URL and a
// cached fastest winner that is still configured are returned without
// probing; otherwise every URL is probed. Pickers keep state between calls,
// so share one across the connects of a process.
func (p *Picker) Select(ctx context.Context, urls []string) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	if url, ok := p.cachedWinner(urls); ok {
		return url, nil
	}
	winner, err := p.Pick(ResultsToEndpoints(Benchmark(ctx, urls)))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}

func (p *Picker) cachedWinner(urls []string) (string, bool) {
	if p.algo != AlgorithmFastest {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.winner == "" || !time.Now().Before(p.winnerUntil) || !slices.Contains(urls, p.winner) {
		return "", false
	}
	return p.winner, true
}

// Pick chooses one of endpoints.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}
	switch p.algo {
	case AlgorithmRoundRobin:
		return p.pickRoundRobin(endpoints)
	case AlgorithmFailover:
		return pickFailover(endpoints)
	default:
		return p.pickFastest(endpoints)
	}
}

func (p *Picker) pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.winner != "" && time.Now().Before(p.winnerUntil) {
		for i := range endpoints {
			if endpoints[i].URL == p.winner {
				return &endpoints[i], nil
			}
		}
	}

	head := bestBlock(endpoints)
	var (
		best      *Endpoint
		bestScore float64
	)
	for _, e := range candidates(endpoints) {
		if head > 0 && head-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, head); best == nil || s > bestScore {
			best, bestScore = e, s
		}
	}
	if best == nil {
		return nil, ErrNoHealthyRPC
	}

	p.winner = best.URL
	p.winnerUntil = time.Now().Add(cacheTTL)
	return best, nil
}

func (p *Picker) pickRoundRobin(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := candidates(endpoints)
	if len(c) == 0 {
		return nil, ErrNoHealthyRPC
	}
	i := p.next % len(c)
	p.next = (i + 1) % len(c)
	return c[i], nil
}

// pickFailover returns the first endpoint not known to be unhealthy, in
// configured order.
func pickFailover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			return e, nil
		}
	}
	return nil, ErrNoHealthyRPC
}

// score favours low latency and a recent head.
func score(e *Endpoint, head uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	}
	if head > 0 {
		s += float64(10 - int64(head-e.BlockNumber))
	}
	return s
}

func bestBlock(endpoints []Endpoint) uint64 {
	var head uint64
	for _, e := range endpoints {
		if e.BlockNumber > head {
			head = e.BlockNumber
		}
	}
	return head
}

// candidates drops endpoints a probe found unhealthy. Unprobed endpoints
// always stay.
func candidates(endpoints []Endpoint) []*Endpoint {
	out := make([]*Endpoint, 0, len(endpoints))
	for i := range endpoints {
		if e := &endpoints[i]; !e.Checked || e.Healthy {
			out = append(out, e)
		}
	}
	return out
}
