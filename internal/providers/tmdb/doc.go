// Package tmdb provides the TMDB API client used for movie identification
// and core metadata enrichment.
//
// It exposes external-id lookup, title search with an optional release-year
// filter, and movie detail retrieval with credits and keywords appended in a
// single request. The adapter maps detail payloads onto the canonical field
// names so the merge can treat TMDB like any other provider.
package tmdb
