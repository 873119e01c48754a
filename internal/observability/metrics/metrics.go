// Package metrics exposes gate counters in Prometheus text exposition format
// without pulling in a client library.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type decisionKey struct {
	verdict string
	allowed string
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram() *histogram {
	buckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	return &histogram{buckets: buckets, counts: make([]uint64, len(buckets))}
}

func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range h.buckets {
		if value <= bound {
			for i := idx; i < len(h.counts); i++ {
				h.counts[i]++
			}
			return
		}
	}
	// Values past the last bucket only land in +Inf via h.count.
}

type collector struct {
	mu        sync.Mutex
	decisions map[decisionKey]uint64
	requests  map[string]uint64
	latency   *histogram
}

var gateCollector = &collector{
	decisions: make(map[decisionKey]uint64),
	requests:  make(map[string]uint64),
	latency:   newHistogram(),
}

// ObserveDecision records the outcome and duration of one validation call.
// The verdict label is the service verdict, or the error code when no verdict
// was obtained.
func ObserveDecision(verdict string, allowed bool, duration time.Duration) {
	gateCollector.mu.Lock()
	defer gateCollector.mu.Unlock()
	key := decisionKey{verdict: verdict, allowed: strconv.FormatBool(allowed)}
	gateCollector.decisions[key]++
	gateCollector.latency.observe(duration.Seconds())
}

// ObserveHTTPRequest counts one API request by handler and status code.
func ObserveHTTPRequest(handler string, status int) {
	gateCollector.mu.Lock()
	defer gateCollector.mu.Unlock()
	gateCollector.requests[handler+"|"+strconv.Itoa(status)]++
}

// Handler serves the metrics in Prometheus text format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, gateCollector.render())
	})
}

func (c *collector) render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.Grow(1024)

	b.WriteString("# HELP chaingate_decisions_total Validation decisions by verdict and outcome.\n")
	b.WriteString("# TYPE chaingate_decisions_total counter\n")
	decisionKeys := make([]decisionKey, 0, len(c.decisions))
	for key := range c.decisions {
		decisionKeys = append(decisionKeys, key)
	}
	sort.Slice(decisionKeys, func(i, j int) bool {
		if decisionKeys[i].verdict == decisionKeys[j].verdict {
			return decisionKeys[i].allowed < decisionKeys[j].allowed
		}
		return decisionKeys[i].verdict < decisionKeys[j].verdict
	})
	for _, key := range decisionKeys {
		fmt.Fprintf(&b, "chaingate_decisions_total{verdict=%q,allowed=%q} %d\n",
			key.verdict, key.allowed, c.decisions[key])
	}

	b.WriteString("# HELP chaingate_http_requests_total API requests by handler and status code.\n")
	b.WriteString("# TYPE chaingate_http_requests_total counter\n")
	requestKeys := make([]string, 0, len(c.requests))
	for key := range c.requests {
		requestKeys = append(requestKeys, key)
	}
	sort.Strings(requestKeys)
	for _, key := range requestKeys {
		handler, code, _ := strings.Cut(key, "|")
		fmt.Fprintf(&b, "chaingate_http_requests_total{handler=%q,code=%q} %d\n",
			handler, code, c.requests[key])
	}

	b.WriteString("# HELP chaingate_validation_duration_seconds Validation call duration in seconds.\n")
	b.WriteString("# TYPE chaingate_validation_duration_seconds histogram\n")
	for idx, bound := range c.latency.buckets {
		fmt.Fprintf(&b, "chaingate_validation_duration_seconds_bucket{le=%q} %d\n",
			strconv.FormatFloat(bound, 'f', -1, 64), c.latency.counts[idx])
	}
	fmt.Fprintf(&b, "chaingate_validation_duration_seconds_bucket{le=\"+Inf\"} %d\n", c.latency.count)
	fmt.Fprintf(&b, "chaingate_validation_duration_seconds_sum %s\n",
		strconv.FormatFloat(c.latency.sum, 'f', -1, 64))
	fmt.Fprintf(&b, "chaingate_validation_duration_seconds_count %d\n", c.latency.count)

	return b.String()
}
