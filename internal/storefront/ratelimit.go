package storefront

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dunglas/httpsfv"
)

// retryHint describes when the server allows the next request, or "" if it didn't say.
//
// Sources, in order:
//   - RateLimit (structured field list, draft-ietf-httpapi-ratelimit-headers):
//     "default";r=0;t=5   → t is seconds until quota resets
//   - RateLimit (older dictionary form): limit=100, remaining=0, reset=5
//   - Retry-After: seconds or an HTTP date
func retryHint(h http.Header) string {
	if d, ok := rateLimitReset(h.Values("RateLimit")); ok {
		return "retry after " + d.String()
	}
	if ra := h.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
			return "retry after " + (time.Duration(secs) * time.Second).String()
		}
		if t, err := http.ParseTime(ra); err == nil {
			if d := time.Until(t).Round(time.Second); d > 0 {
				return "retry after " + d.String()
			}
		}
	}
	return ""
}

// rateLimitReset extracts the reset delay from RateLimit header values.
func rateLimitReset(values []string) (time.Duration, bool) {
	if len(values) == 0 {
		return 0, false
	}

	if list, err := httpsfv.UnmarshalList(values); err == nil {
		for _, member := range list {
			item, ok := member.(httpsfv.Item)
			if !ok || item.Params == nil {
				continue
			}
			if t, ok := item.Params.Get("t"); ok {
				if secs, ok := t.(int64); ok && secs >= 0 {
					return time.Duration(secs) * time.Second, true
				}
			}
		}
	}

	if dict, err := httpsfv.UnmarshalDictionary(values); err == nil {
		if member, ok := dict.Get("reset"); ok {
			if item, ok := member.(httpsfv.Item); ok {
				if secs, ok := item.Value.(int64); ok && secs >= 0 {
					return time.Duration(secs) * time.Second, true
				}
			}
		}
	}
	return 0, false
}
