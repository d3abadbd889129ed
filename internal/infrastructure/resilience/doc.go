/*
Package resilience provides a circuit breaker for broker connections.

A client process whose broker is down would otherwise pay a full dial attempt
on every msgsnd/msgrcv. The breaker counts consecutive failures and, once the
threshold is reached, rejects calls immediately until a cooldown passes. A
single probe call then decides whether to close again.

# Usage

	breaker := resilience.New("broker", resilience.Settings{
		Threshold: 5,
		Cooldown:  time.Second,
	})

	err := breaker.Do(func() error {
		conn, err = dialer.DialContext(ctx, "unix", path)
		return err
	})

# States

	Closed --[threshold failures]-> Open --[cooldown]-> Half-Open --[success]-> Closed
	                                                        |
	                                                    [failure]
	                                                        v
	                                                       Open
*/
package resilience
