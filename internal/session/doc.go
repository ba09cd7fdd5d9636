// Package session bundles a loaded model, its settings table and a simulator
// into one object that accepts input overrides, runs and resets.
//
// A session replaces the process-wide model and simulator a dashboard would
// otherwise keep. Sessions are not safe for concurrent use.
package session
