// Package telemetry wraps OpenTelemetry SDK setup for traces. When
// telemetry is disabled, no SDK provider is created and the global
// tracer remains noop.
// This package is internal and should not be imported by external projects.
package telemetry
