package domain

// Metadata is an optional, purely descriptive bag of caller-supplied
// key/value pairs attached to an account or transaction. It is never part
// of any posting or balance invariant — Mongo being unavailable must never
// block a posting.
type Metadata map[string]any
