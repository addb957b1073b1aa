package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ProbeTimeout bounds a single endpoint probe.
const ProbeTimeout = 5 * time.Second

// ProbeResult is what one eth_blockNumber round trip measured.
type ProbeResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Probe dials url and times an eth_blockNumber call.
func Probe(ctx context.Context, url string) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	res := ProbeResult{URL: url}
	start := time.Now()
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		res.Err = err
		return res
	}
	defer client.Close()

	res.BlockNumber, res.Err = client.BlockNumber(ctx)
	res.Latency = time.Since(start)
	return res
}

// Benchmark probes all urls in parallel. Results keep the order of urls.
func Benchmark(ctx context.Context, urls []string) []ProbeResult {
	results := make([]ProbeResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = Probe(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

// ResultsToEndpoints converts probe results to checked endpoints.
func ResultsToEndpoints(results []ProbeResult) []Endpoint {
	out := make([]Endpoint, 0, len(results))
	for _, r := range results {
		out = append(out, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
			Checked:     true,
		})
	}
	return out
}
