// Package storage defines the persistence interfaces for dataset versions,
// cached analytics, and telemetry events. Implementations live in
// subpackages; internal/storage/sqlite is the production one.
package storage
