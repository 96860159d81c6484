// Package portstore persists the host port bound by the runtime container.
//
// Every store seeds DefaultPort on the first Load and persists it, so a fresh
// install addresses the runtime on a predictable port before the first
// reconciliation.
package portstore

import "fmt"

// DefaultPort is the port assumed before any successful bind.
const DefaultPort = 3100

func validPort(p int) error {
	if p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port %d", p)
	}
	return nil
}
