// Package omdb provides the OMDb API client used for review-oriented
// enrichment: IMDb rating, Metascore, Rotten Tomatoes percentage, content
// rating, and awards text. OMDb reports missing values as "N/A" and signals
// failures inside a 200 response, both of which the adapter normalizes away.
package omdb
