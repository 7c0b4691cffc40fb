package remo

import (
	"net/http"
	"strconv"
	"time"
)

const (
	headerRateLimit     = "X-Rate-Limit-Limit"
	headerRateRemaining = "X-Rate-Limit-Remaining"
	headerRateReset     = "X-Rate-Limit-Reset"
)

// RateLimit is the vendor's rate-limit window as reported by the last
// response that carried the headers.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// Used returns the number of requests spent in the window.
func (r RateLimit) Used() int {
	return r.Limit - r.Remaining
}

// parseRateLimit reads the x-rate-limit-* headers. ok is false when the
// response carried none of them.
func parseRateLimit(h http.Header) (RateLimit, bool) {
	limit, okLimit := headerInt(h, headerRateLimit)
	remaining, okRemaining := headerInt(h, headerRateRemaining)
	reset, okReset := headerInt(h, headerRateReset)
	if !okLimit && !okRemaining && !okReset {
		return RateLimit{}, false
	}

	rl := RateLimit{Limit: limit, Remaining: remaining}
	if okReset {
		rl.Reset = time.Unix(int64(reset), 0).UTC()
	}
	return rl, true
}

func headerInt(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r RateLimit) record() {
	rateLimitGauge.Set(float64(r.Limit))
	rateRemainingGauge.Set(float64(r.Remaining))
	if !r.Reset.IsZero() {
		rateResetGauge.Set(float64(r.Reset.Unix()))
	}
}
