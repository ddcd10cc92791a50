package validation

import "time"

// EstimateExpiry turns an estimated day-count into an absolute expiry
// timestamp relative to now, serialized as RFC 3339. It applies only to
// add actions; removals never carry an expiry.
func EstimateExpiry(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, days).Format(time.RFC3339)
}
