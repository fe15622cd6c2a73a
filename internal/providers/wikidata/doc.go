// Package wikidata provides the keyless Wikidata Action API client used as
// a low-priority corroborating source. Entities are resolved from IMDb ids
// via the haswbstatement search, and only literal-valued statements are
// read.
package wikidata
