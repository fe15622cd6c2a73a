package merge

import (
	"sort"

	"cinescope/internal/identity"
	"cinescope/internal/providers"
	"cinescope/internal/store"
)

// Apply folds this run's provider records into the prior canonical state and
// returns the new record. The prior record is never mutated.
//
// Scalar fields resolve by provider priority: a value only moves when the
// new origin is at least as authoritative as the recorded one, so a rerun of
// the same inputs is a fixed point. A provider that responded but omitted a
// field clears its own previously supplied value; an unreachable provider
// never clears anything. List fields union with priority-aware dedupe and
// sort on the normalized key, making merge order irrelevant.
//
// The statuses map carries per-provider outcomes for this run and is merged
// over the prior status map. Nothing in here reads the clock; timestamps
// come from the records themselves.
func Apply(prior *store.CanonicalMovie, movieKey string, recs []*providers.Record, statuses map[string]string) *store.CanonicalMovie {
	var result *store.CanonicalMovie
	if prior != nil {
		result = prior.Clone()
	} else {
		result = store.NewCanonicalMovie(movieKey)
	}

	ordered := append([]*providers.Record(nil), recs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i].Provider) < rank(ordered[j].Provider)
	})

	fetched := make(map[string]*providers.Record, len(ordered))
	for _, rec := range ordered {
		fetched[rec.Provider] = rec
	}

	for _, field := range store.TextFields {
		value, origin, ok := resolveField(field, result, ordered, fetched, func(rec *providers.Record, name string) (any, bool) {
			v, present := rec.Text[name]
			return v, present
		}, func(name string) (any, bool) {
			v, present := result.Text[name]
			return v, present
		})
		if !ok {
			delete(result.Text, field)
			delete(result.Provenance, field)
			continue
		}
		result.Text[field] = value.(string)
		result.Provenance[field] = origin
	}

	for _, field := range store.NumberFields {
		value, origin, ok := resolveField(field, result, ordered, fetched, func(rec *providers.Record, name string) (any, bool) {
			v, present := rec.Number[name]
			return v, present
		}, func(name string) (any, bool) {
			v, present := result.Number[name]
			return v, present
		})
		if !ok {
			delete(result.Number, field)
			delete(result.Provenance, field)
			continue
		}
		result.Number[field] = value.(float64)
		result.Provenance[field] = origin
	}

	mergeCast(result, ordered, fetched)
	mergeKeywords(result, ordered, fetched)
	mergeContentFlags(result, ordered, fetched)

	for provider, status := range statuses {
		result.ProviderStatus[provider] = status
	}

	return result
}

// resolveField picks the winning value for one field from the prior state
// and this run's records. The prior value competes unless its own provider
// responded this run, in which case the fresh record fully supersedes it,
// including by omission.
func resolveField(
	field string,
	result *store.CanonicalMovie,
	ordered []*providers.Record,
	fetched map[string]*providers.Record,
	fromRecord func(*providers.Record, string) (any, bool),
	fromPrior func(string) (any, bool),
) (any, store.FieldOrigin, bool) {
	var (
		bestValue  any
		bestOrigin store.FieldOrigin
		bestRank   = unknownRank + 1
		found      bool
	)

	if priorOrigin, ok := result.Provenance[field]; ok {
		if _, refreshed := fetched[priorOrigin.Provider]; !refreshed {
			if value, present := fromPrior(field); present {
				bestValue = value
				bestOrigin = priorOrigin
				bestRank = rank(priorOrigin.Provider)
				found = true
			}
		}
	}

	for _, rec := range ordered {
		value, present := fromRecord(rec, field)
		if !present {
			continue
		}
		recRank := rank(rec.Provider)
		if recRank >= bestRank && found {
			// A fresh record from the same provider as the current best
			// still refreshes the value.
			if recRank != bestRank || rec.Provider != bestOrigin.Provider {
				continue
			}
		}
		bestValue = value
		bestOrigin = store.FieldOrigin{Provider: rec.Provider, FetchedAt: rec.FetchedAt}
		bestRank = recRank
		found = true
	}

	return bestValue, bestOrigin, found
}

func mergeCast(result *store.CanonicalMovie, ordered []*providers.Record, fetched map[string]*providers.Record) {
	members := make(map[string]store.CastMember)
	for _, member := range result.Cast {
		// A provider that responded this run replaces its own entries.
		if _, refreshed := fetched[member.Provider]; refreshed {
			continue
		}
		members[member.Normalized] = member
	}
	for _, rec := range ordered {
		for ord, name := range rec.Cast {
			normalized := identity.Normalize(name)
			if normalized == "" {
				continue
			}
			if existing, ok := members[normalized]; ok && rank(existing.Provider) <= rank(rec.Provider) {
				continue
			}
			members[normalized] = store.CastMember{
				Name:       name,
				Normalized: normalized,
				Provider:   rec.Provider,
				Ord:        ord,
			}
		}
	}
	result.Cast = sortedCast(members)
}

func mergeKeywords(result *store.CanonicalMovie, ordered []*providers.Record, fetched map[string]*providers.Record) {
	keywords := make(map[string]store.Keyword)
	for _, keyword := range result.Keywords {
		if _, refreshed := fetched[keyword.Provider]; refreshed {
			continue
		}
		keywords[keyword.Normalized] = keyword
	}
	for _, rec := range ordered {
		for _, word := range rec.Keywords {
			normalized := identity.Normalize(word)
			if normalized == "" {
				continue
			}
			if existing, ok := keywords[normalized]; ok && rank(existing.Provider) <= rank(rec.Provider) {
				continue
			}
			keywords[normalized] = store.Keyword{
				Keyword:    word,
				Normalized: normalized,
				Provider:   rec.Provider,
			}
		}
	}
	result.Keywords = sortedKeywords(keywords)
}

func mergeContentFlags(result *store.CanonicalMovie, ordered []*providers.Record, fetched map[string]*providers.Record) {
	flags := make(map[string]store.ContentFlag)
	for _, flag := range result.ContentFlags {
		if _, refreshed := fetched[flag.Provider]; refreshed {
			continue
		}
		flags[flag.Normalized] = flag
	}
	for _, rec := range ordered {
		for _, flag := range rec.Flags {
			normalized := identity.Normalize(flag.Topic)
			if normalized == "" {
				continue
			}
			if existing, ok := flags[normalized]; ok && rank(existing.Provider) <= rank(rec.Provider) {
				continue
			}
			flags[normalized] = store.ContentFlag{
				Topic:      flag.Topic,
				Normalized: normalized,
				YesVotes:   flag.YesVotes,
				NoVotes:    flag.NoVotes,
				Provider:   rec.Provider,
			}
		}
	}
	result.ContentFlags = sortedFlags(flags)
}

func sortedCast(members map[string]store.CastMember) []store.CastMember {
	out := make([]store.CastMember, 0, len(members))
	for _, member := range members {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Normalized < out[j].Normalized })
	return out
}

func sortedKeywords(keywords map[string]store.Keyword) []store.Keyword {
	out := make([]store.Keyword, 0, len(keywords))
	for _, keyword := range keywords {
		out = append(out, keyword)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Normalized < out[j].Normalized })
	return out
}

func sortedFlags(flags map[string]store.ContentFlag) []store.ContentFlag {
	out := make([]store.ContentFlag, 0, len(flags))
	for _, flag := range flags {
		out = append(out, flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Normalized < out[j].Normalized })
	return out
}
