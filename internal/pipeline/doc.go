// Package pipeline orchestrates enrichment runs over the imported watch
// history. Each movie resolves to provider identifiers, fetches from every
// configured provider concurrently, merges into the canonical record, and
// advances a durable checkpoint, so interrupted runs resume exactly where
// they stopped. Preflight checks gate a run on a writable data directory
// with free space and at least one configured provider.
package pipeline
