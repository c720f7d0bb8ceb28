package ratelimit

import "fmt"

// Policy is a request budget over a fixed window
type Policy struct {
	Limit         int64 // Requests allowed per window
	WindowSeconds int   // Time window in seconds
}

// DefaultPolicy applies when no limit is configured
var DefaultPolicy = Policy{
	Limit:         120,
	WindowSeconds: 60,
}

// Describe returns a human-readable description of the policy
func (p Policy) Describe() string {
	return fmt.Sprintf("%d requests per %d seconds", p.Limit, p.WindowSeconds)
}

// ClientKey is the Redis key of a client's counter
func ClientKey(clientID string) string {
	return fmt.Sprintf("rate_limit:eligible:client:%s", clientID)
}
