package httpapi

import "time"

// ensureTimeout bounds how long a POST /runtime/ensure caller waits. The
// reconciliation itself keeps running after the caller gives up.
// Zero means no additional timeout beyond server/connection timeouts.
var ensureTimeout time.Duration

// SetEnsureTimeout sets the ensure wait timeout (0 disables).
func SetEnsureTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	ensureTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty method
// and header lists fall back to GET/POST/OPTIONS and Content-Type/X-Log-Level.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
	if len(corsAllowedMethods) == 0 {
		corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(corsAllowedHeaders) == 0 {
		corsAllowedHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
	}
}
