/*
Package resilience provides a circuit breaker for outbound calls whose
failure must never slow down a sandbox scan.

# Overview

Alert delivery (chat webhooks) is best effort. When the webhook endpoint is
down, every scan that observes a forced download would otherwise wait for the
full HTTP timeout and retry budget. The breaker short-circuits those calls
until the endpoint recovers.

# Usage

	breaker := resilience.New("chat-webhook", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	resp, err := resilience.Call(breaker, func() (*resty.Response, error) {
		return req.Post(webhookURL)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
