// Package client talks to videohub endpoints on behalf of the CLI: it
// uploads a video to the active endpoint and aggregates the metadata feeds
// of every registered endpoint.
package client
