// Package identity maps watch-history entries to provider-native
// identifiers. Entries with an IMDb id resolve directly; the rest go through
// fuzzy title matching against TMDB search results with a configurable
// acceptance threshold. Every outcome, including "no match", is cached in
// the store so repeat runs never redo lookups.
package identity
