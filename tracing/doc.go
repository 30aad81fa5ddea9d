// Package tracing wraps OpenTelemetry so that the orchestrator and crews can
// open spans without importing the SDK. Nothing is exported until Init (or
// InitWithExporter) installs a provider; before that spans are no-ops.
package tracing
