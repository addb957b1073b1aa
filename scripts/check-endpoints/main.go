// check-endpoints: connects to every built-in Sepolia RPC in parallel, reads
// one token from the asset contract through each and prints a summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-endpoints [token-id]
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/assetcli/internal/chain"
	"github.com/Mohsinsiddi/assetcli/internal/config"
	"github.com/Mohsinsiddi/assetcli/internal/rpc"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	url     string
	latency time.Duration
	head    uint64
	state   string
	price   string
	err     string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	id := big.NewInt(1)
	if len(os.Args) > 1 {
		if _, ok := id.SetString(os.Args[1], 10); !ok {
			fmt.Fprintf(os.Stderr, "invalid token id %q\n", os.Args[1])
			os.Exit(2)
		}
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	for _, url := range config.DefaultRPCs {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			r := check(url, id)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(url)
	}
	wg.Wait()

	printTable(id, results)
}

func check(url string, id *big.Int) result {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	// Quick ping first; skip endpoints that don't respond.
	probe := rpc.Probe(ctx, url)
	r := result{url: url, latency: probe.Latency, head: probe.BlockNumber, state: "—", price: "—"}
	if probe.Err != nil {
		r.err = "unreachable"
		return r
	}

	sess, err := chain.Connect(ctx, chain.Options{
		RPCURLs:  []string{url},
		ChainID:  config.SepoliaChainID,
		Contract: common.HexToAddress(config.DefaultContract),
		ReadOnly: true,
	})
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	defer sess.Close()

	info, err := sess.Handle.Token(ctx, id)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	r.state = info.StateName()
	if price, err := sess.Handle.SellingPrice(ctx, id); err == nil {
		r.price = price.String()
	} else {
		r.err = shortErr(err)
	}
	return r
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(id *big.Int, results []result) {
	// Fastest first; unreachable endpoints last.
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.err == "") != (b.err == "") {
			return a.err == ""
		}
		return a.latency < b.latency
	})

	fmt.Printf("token #%s on %s\n\n", id, config.DefaultContract)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RPC\tLATENCY\tHEAD\tSTATE\tPRICE (WEI)\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 40)+"\t"+
		strings.Repeat("-", 8)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 12))
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.url, r.latency.Round(time.Millisecond), r.head, r.state, r.price, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
