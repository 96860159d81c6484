package types

// EnsureResponse is returned by POST /runtime/ensure.
type EnsureResponse struct {
	// True once the runtime container is running on Port.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Host port bound to the runtime.
	// example: 3100
	Port      int       `json:"port" example:"3100"`
	Endpoints Endpoints `json:"endpoints"`
}

// PortResponse is returned by GET /runtime/port.
type PortResponse struct {
	// Last bound host port, or the stored default.
	// example: 3100
	Port      int       `json:"port" example:"3100"`
	Endpoints Endpoints `json:"endpoints"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: failed to manage model container: allocate port: no available ports found in range 3100-3110
	Error string `json:"error" example:"failed to manage model container: allocate port: no available ports found in range 3100-3110"`
	// Error classification.
	// example: no_port_available
	Kind string `json:"kind,omitempty" example:"no_port_available"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Coordinator state (idle, reconciling).
	// example: idle
	State string `json:"state" example:"idle"`
	// True when the last reconciliation succeeded.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Configured image reference.
	// example: voicestudio/model-library:latest
	Image string `json:"image" example:"voicestudio/model-library:latest"`
	// Deterministic container name derived from Image.
	// example: voice-studio-models-1a2b3c4d5e6f
	Container string `json:"container,omitempty" example:"voice-studio-models-1a2b3c4d5e6f"`
	// Id of the runtime container.
	ContainerID string `json:"container_id,omitempty"`
	// Bound host port, 0 before the first successful reconciliation.
	// example: 3100
	Port int `json:"port" example:"3100"`
	// Branch taken by the last successful reconciliation (reuse, start, recreate, create).
	// example: reuse
	LastAction string `json:"last_action,omitempty" example:"reuse"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Operation id of the last reconciliation.
	LastOpID string `json:"last_op_id,omitempty"`
	// Completion time of the last reconciliation (unix seconds).
	// example: 1700000000
	LastRunUnix int64 `json:"last_run_unix,omitempty" example:"1700000000"`
	// Total reconciliations.
	// example: 3
	ReconcilesTotal uint64 `json:"reconciles_total" example:"3"`
	// Failed reconciliations.
	// example: 0
	FailuresTotal uint64 `json:"failures_total" example:"0"`
	// Active event subscribers.
	// example: 1
	Subscribers int `json:"subscribers" example:"1"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
