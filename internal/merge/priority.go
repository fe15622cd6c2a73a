package merge

import "cinescope/internal/providers"

// providerRank orders providers by trust for scalar fields. Lower is more
// authoritative. TMDB leads because its editorial data is curated per
// locale; OMDb carries the review aggregates; Wikidata corroborates;
// the warnings site only ever contributes list data.
var providerRank = map[string]int{
	providers.NameTMDB:     0,
	providers.NameOMDB:     1,
	providers.NameWikidata: 2,
	providers.NameDogDie:   3,
}

const unknownRank = 100

func rank(provider string) int {
	if r, ok := providerRank[provider]; ok {
		return r
	}
	return unknownRank
}
