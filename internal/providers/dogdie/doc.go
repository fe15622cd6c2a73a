// Package dogdie provides the Does the Dog Die API client used for
// crowd-voted content warnings. Lookups are two requests: a search resolves
// the site's media id, then the media detail carries per-topic yes/no vote
// tallies.
package dogdie
