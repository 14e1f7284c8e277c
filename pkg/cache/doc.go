// Package cache is the resource cache shared between page loads.
//
// Entries are stored as JSON in a Backend (in memory, or Redis for a cache
// shared between server processes). A Cache records every entry read or
// written through it, and Snapshot serializes exactly those entries so the
// server can hand them to the client in the revival payload.
package cache
