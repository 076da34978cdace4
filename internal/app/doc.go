// Package app wires configuration, storage, the scope orchestrator and the
// diagnostics service into one runnable application, and exposes the trigger
// operations the CLI calls.
package app
