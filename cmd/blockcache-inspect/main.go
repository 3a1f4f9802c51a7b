package main

// main.go implements the blockcache inspector CLI: it fetches the
// diagnostic snapshot from a target process exposing debughttp's
// endpoint and prints it either as pretty text or JSON.
//
// The target Go service is expected to expose:
//   GET /debug/blockcache/snapshot — JSON payload, see debughttp.snapshot.
//
// Grounded on the teacher's cmd/arena-cache-inspect/main.go: same
// flag/fetch/pretty-print-or-JSON shape and watch mode, adapted to the
// block cache's per-extension snapshot schema instead of a single
// hits/misses/arena_bytes triple.
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
)

type options struct {
	target   string
	json     bool
	watch    bool
	interval time.Duration
}

type extensionSnapshot struct {
	Ext       string `json:"ext"`
	ExtPos    int    `json:"ext_pos"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	HitRatio  int    `json:"hit_ratio_percent"`
	Evictions uint64 `json:"evictions"`
	LiveBytes int64  `json:"live_bytes"`
}

type snapshot struct {
	FillPercent int64               `json:"fill_percent"`
	LiveBytes   int64               `json:"live_bytes"`
	Extensions  []extensionSnapshot `json:"extensions"`
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.target, "target", "http://localhost:6060", "base URL of the target process")
	flag.BoolVar(&opts.json, "json", false, "print raw JSON instead of a formatted table")
	flag.BoolVar(&opts.watch, "watch", false, "poll repeatedly instead of a single fetch")
	flag.DurationVar(&opts.interval, "interval", 2*time.Second, "poll interval in watch mode")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if opts.watch {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for {
			if err := dumpOnce(ctx, opts); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return
			}
		}
	}

	if err := dumpOnce(ctx, opts); err != nil {
		fatal(err)
	}
}

func dumpOnce(ctx context.Context, opts *options) error {
	snap, err := fetchSnapshot(ctx, opts.target)
	if err != nil {
		return err
	}
	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	prettyPrint(snap)
	return nil
}

func fetchSnapshot(ctx context.Context, base string) (*snapshot, error) {
	url := base + "/debug/blockcache/snapshot"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	var snap snapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func prettyPrint(snap *snapshot) {
	fmt.Printf("Fill:       %d%%\n", snap.FillPercent)
	fmt.Printf("Live bytes: %s\n", humanize.Bytes(uint64(snap.LiveBytes)))
	fmt.Println()
	for _, e := range snap.Extensions {
		fmt.Printf("%-12s hits=%-8d misses=%-8d ratio=%3d%%  evictions=%-6d bytes=%s\n",
			e.Ext, e.Hits, e.Misses, e.HitRatio, e.Evictions, humanize.Bytes(uint64(e.LiveBytes)))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "blockcache-inspect:", err)
	os.Exit(1)
}
