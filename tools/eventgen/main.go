// eventgen is a tiny HTTP load generator tailored to the ingest service: it
// posts synthetic transaction events against POST /events. It reuses
// connections (keep-alive) and supports concurrency so demo scripts run
// fast without relying on external tools.
//
// Modes:
//   - single: send N events for a single user_id
//   - zipf:   approximate 80/20 skew (hot/cold) without PRNG: send the hot
//     user_id 4/5 of the time
//
// Usage examples:
//
//	eventgen -base=http://127.0.0.1:8080 -mode=single -user=alice -n=5000 -c=16
//	eventgen -base=http://127.0.0.1:8080 -mode=zipf -hot_user=hot-1 -cold_users=50 -n=8000 -c=16
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type modeType string

const (
	modeSingle modeType = "single"
	modeZipf   modeType = "zipf"
)

// event mirrors the ingest service's JSON payload shape; kept local rather
// than importing the schema package so this tool stays a standalone binary.
type event struct {
	EventID    string  `json:"event_id"`
	Ts         string  `json:"ts"`
	UserID     string  `json:"user_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Country    string  `json:"country"`
	DeviceID   string  `json:"device_id"`
	IP         string  `json:"ip"`
	MerchantID string  `json:"merchant_id"`
}

func main() {
	var (
		base     = flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host, e.g. http://127.0.0.1:8080")
		path     = flag.String("path", "/events", "Request path")
		modeS    = flag.String("mode", string(modeSingle), "Mode: single|zipf")
		user     = flag.String("user", "alice", "user_id for single mode")
		hotUser  = flag.String("hot_user", "hot-1", "Hot user_id for zipf mode")
		coldN    = flag.Int("cold_users", 50, "Number of cold user_ids to round-robin in zipf mode")
		device   = flag.String("device", "d1", "device_id to stamp on every event")
		ip       = flag.String("ip", "1.1.1.1", "ip to stamp on every event")
		merchant = flag.String("merchant", "m1", "merchant_id to stamp on every event")
		amount   = flag.Float64("amount", 50.0, "amount to stamp on every event")
		N        = flag.Int("n", 5000, "Total events to send")
		conc     = flag.Int("c", 8, "Number of concurrent workers")
		// Deterministic skew: hotEvery=5 means 4/5 go to the hot user, 1/5 to a cold user.
		hotEvery = flag.Int("hot_every", 5, "Zipf-like skew period (all but 1 of this period go to hot; minimum 2)")
		// Timeouts & transport tuning
		timeout    = flag.Duration("timeout", 20*time.Second, "Overall timeout for the run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	m := modeType(strings.ToLower(*modeS))
	if m != modeSingle && m != modeZipf {
		fmt.Fprintf(os.Stderr, "unknown -mode=%s (want single|zipf)\n", *modeS)
		os.Exit(2)
	}
	if *N <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -c must be > 0")
		os.Exit(2)
	}
	if m == modeZipf {
		if *coldN <= 0 {
			fmt.Fprintln(os.Stderr, "-cold_users must be > 0 in zipf mode")
			os.Exit(2)
		}
		if *hotEvery < 2 {
			*hotEvery = 2
		}
	}

	baseURL := strings.TrimRight(*base, "/")
	p := *path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	fullURL := baseURL + p

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var done int64

	worker := func(id, count int) {
		defer atomic.AddInt64(&done, int64(count))
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var u string
			if m == modeSingle {
				u = *user
			} else {
				// 80/20-ish deterministic skew: (i+id)%hotEvery != 0 => hot user.
				if ((i + id) % *hotEvery) != 0 {
					u = *hotUser
				} else {
					idx := ((i + id) % *coldN) + 1
					u = fmt.Sprintf("cold-%d", idx)
				}
			}

			e := event{
				EventID:    uuid.NewString(),
				Ts:         time.Now().UTC().Format(time.RFC3339),
				UserID:     u,
				Amount:     *amount,
				Currency:   "USD",
				Country:    "US",
				DeviceID:   *device,
				IP:         *ip,
				MerchantID: *merchant,
			}
			body, err := json.Marshal(e)
			if err != nil {
				continue
			}

			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			} else {
				time.Sleep(200 * time.Microsecond)
			}
		}
	}

	per := *N / *conc
	rem := *N - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(id, n int) {
			defer wg.Done()
			worker(id, n)
		}(w, count)
	}
	wg.Wait()
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	ops := float64(*N) / elapsed.Seconds()
	fmt.Printf("eventgen: mode=%s N=%d c=%d go=%d Duration=%s Throughput=%.0f req/s\n", m, *N, *conc, runtime.GOMAXPROCS(0), elapsed.Truncate(time.Millisecond), ops)
}
