// Package telemetry records Prometheus metrics and OpenTelemetry spans for
// page lifecycle operations.
//
// Metrics:
//   - isopage_manage_total: navigations by path and outcome
//     (mount, update, error)
//   - isopage_manage_duration_seconds: navigation duration by path
//   - isopage_render_total: renderer calls by variant, operation and status
//   - isopage_patches_sent_total: patches streamed to live sessions
//   - isopage_live_sessions: open live sessions
//
// A nil *Metrics and a nil *Tracer are valid and record nothing.
package telemetry
