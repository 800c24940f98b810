/*
Package resilience provides a circuit breaker for graceful degradation.

# Overview

The engine runs a repaint loop per active tab. When the render backend
starts failing every frame, retrying at full cadence wastes CPU and floods
the logs; the breaker opens after a run of consecutive failures and sheds
render calls until a cooldown passes, then probes with a single call.

# Usage

	breaker := resilience.New("render", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         5 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})

	err := breaker.Execute(func() error {
		return backend.Render(ctx, doc, surface)
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[successes]-> Closed
	                                              |
	                                          [failure]
	                                              v
	                                            Open
*/
package resilience
