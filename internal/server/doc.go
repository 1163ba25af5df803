// Package server implements the videohub upload receiver and metadata
// lister. It wires the HTTP routes to a blob store for the video bytes and a
// metadata store for the records, and provides the lifecycle helpers used by
// tests and the production binary.
package server
