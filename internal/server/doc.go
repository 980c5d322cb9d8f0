// Package server implements the optional HTTP monitoring endpoints for
// the recorder: health, statistics, configuration, and Prometheus
// metrics. All endpoints are read-only.
package server
