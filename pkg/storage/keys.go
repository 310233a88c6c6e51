package storage

import "time"

// registeredLayout is how site registration times are stored.
const registeredLayout = time.RFC3339

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func parseRegistered(s string) time.Time {
	// Try RFC3339 then the SQLite CURRENT_TIMESTAMP format.
	if t, err := time.Parse(registeredLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
