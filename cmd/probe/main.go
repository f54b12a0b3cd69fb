// probe exercises the gated EdgeGate routes from the command line: it sends
// a burst of requests and tallies the status codes, which makes it easy to
// watch the rate limiter tip over into its penalty block or compare how the
// fingerprint gate treats different user agents.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"sort"
	"time"
)

func main() {
	target := flag.String("target", "http://localhost:8080", "EdgeGate base URL")
	route := flag.String("route", "/api/ipCheck", "Route to probe")
	requests := flag.Int("n", 15, "Number of requests to send")
	interval := flag.Duration("i", 100*time.Millisecond, "Interval between requests")
	userAgent := flag.String("ua", "", "User-Agent to send (empty for Go default)")
	flag.Parse()

	url := *target + *route
	fmt.Printf("Probing %s with %d requests:\n", url, *requests)

	client := &http.Client{Timeout: 10 * time.Second}
	stats := make(map[int]int)

	for i := 0; i < *requests; i++ {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			fmt.Printf("Request %d: FAILED (%v)\n", i+1, err)
			continue
		}
		if *userAgent != "" {
			req.Header.Set("User-Agent", *userAgent)
		}

		resp, err := client.Do(req)
		if err != nil {
			stats[0]++
			fmt.Printf("Request %d: FAILED (%v)\n", i+1, err)
		} else {
			stats[resp.StatusCode]++
			fmt.Printf("Request %d: status=%d remaining=%s\n",
				i+1, resp.StatusCode, resp.Header.Get("X-RateLimit-Remaining"))
			resp.Body.Close()
		}

		if i < *requests-1 {
			time.Sleep(*interval)
		}
	}

	fmt.Printf("\n--- Results ---\n")
	codes := make([]int, 0, len(stats))
	for code := range stats {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		label := ""
		switch code {
		case 200:
			label = "OK"
		case 403:
			label = "Forbidden (region/risk/fingerprint)"
		case 429:
			label = "Too Many Requests (rate limited)"
		case 500:
			label = "Server Error (geo lookup failed)"
		case 0:
			label = "Connection Error"
		}
		fmt.Printf("  %d [%s]: %d\n", code, label, stats[code])
	}
}
