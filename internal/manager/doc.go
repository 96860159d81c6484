// Package manager keeps the model runtime container present, running and
// reachable on a known host port. It is structured into small files by concern:
//
//   - manager.go: Manager type, constructor, EnsureRuntimeReady (single-flight).
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: container/engine views (ContainerRecord, ContainerSummary, CreateSpec, Snapshot).
//   - engine.go: the narrow Engine, PortStore and Probe interfaces consumed here.
//   - errors.go: OperationError and helpers (IsNoPortAvailable, IsPullFailed, ...).
//   - identity.go: image reference parsing and deterministic container naming.
//   - ports.go: host port allocation against the engine's published ports.
//   - pull.go: pull-if-absent with aggregated layer progress.
//   - reconcile.go: the reuse/start/recreate decision table.
//   - events.go, eventbus.go: progress events and subscriber fan-out.
//   - status_report.go: Snapshot/Status reporting helpers.
//   - metrics.go, tracing.go: prometheus collectors and otel spans.
//
// The container engine is reached only through Engine; internal/engine provides
// the Docker implementation. Reconciliation state is never cached across calls:
// every pass re-lists and re-inspects.
package manager
