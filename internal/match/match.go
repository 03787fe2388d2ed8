// Package match pairs functions across two source versions and aligns
// generic instantiations onto their concrete aliases.
package match

import (
	"log/slog"

	"verieq/internal/lang"
)

// Pairs matches records from the old version against the new version by
// signature equality. The first record with an equal signature wins; no
// multi-candidate resolution is attempted. Matched records are removed
// from both sides; the survivors come back as version-unique leftovers,
// excluded from verification.
func Pairs(oldRecs, newRecs []lang.FunctionRecord) (pairs []*lang.MatchedFunction, uniqueOld, uniqueNew []lang.FunctionRecord) {
	matchedNew := make(map[int]bool)

	for _, rec := range oldRecs {
		found := -1
		for i, cand := range newRecs {
			if matchedNew[i] {
				continue
			}
			if rec.Sig.Equal(cand.Sig) {
				found = i
				break
			}
		}
		if found < 0 {
			uniqueOld = append(uniqueOld, rec)
			continue
		}
		matchedNew[found] = true
		pairs = append(pairs, lang.Match(rec, newRecs[found].Body))
	}

	for i, rec := range newRecs {
		if !matchedNew[i] {
			uniqueNew = append(uniqueNew, rec)
		}
	}
	return pairs, uniqueOld, uniqueNew
}

// AlignAliases rewrites matched pairs whose owning type is generic when
// either source instantiates that generic as a concrete alias: the owner
// becomes the alias and the qualified name becomes `alias::ident`. The
// first matching alias wins; old-version aliases are scanned before
// new-version ones, and each pair is rewritten at most once. Preconditions
// sharing a generic owner get the same treatment.
func AlignAliases(pairs []*lang.MatchedFunction, preconds []lang.Precondition, oldAliases, newAliases []lang.InstantiatedAlias, log *slog.Logger) {
	aliases := make([]lang.InstantiatedAlias, 0, len(oldAliases)+len(newAliases))
	aliases = append(aliases, oldAliases...)
	aliases = append(aliases, newAliases...)

	for _, pair := range pairs {
		if pair.Owner == nil || !pair.Owner.Generic() {
			continue
		}
		if alias, ok := findAlias(aliases, *pair.Owner); ok {
			rewritten := lang.PreciseType(alias.Alias)
			log.Debug("aligning generic owner onto alias",
				slog.String("pair", pair.Name.String()),
				slog.String("alias", alias.Alias.String()))
			pair.Owner = &rewritten
			pair.Name = alias.Alias.Join(pair.Ident())
		}
	}

	for i := range preconds {
		pre := &preconds[i]
		if pre.Owner == nil || !pre.Owner.Generic() {
			continue
		}
		if alias, ok := findAlias(aliases, *pre.Owner); ok {
			rewritten := lang.PreciseType(alias.Alias)
			pre.Owner = &rewritten
			pre.Name = alias.Alias.Join(pre.Name.Last())
		}
	}
}

func findAlias(aliases []lang.InstantiatedAlias, owner lang.TypeRef) (lang.InstantiatedAlias, bool) {
	for _, alias := range aliases {
		if alias.Concrete.EqualIgnoreArgs(owner) {
			return alias, true
		}
	}
	return lang.InstantiatedAlias{}, false
}
