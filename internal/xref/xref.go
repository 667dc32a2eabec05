// Package xref cross-references requirements against the locations that
// implement or verify them.
package xref

import (
	"sort"

	"github.com/phobologic/reqtrace/internal/model"
)

// Index maps a requirement ID to the locations that reference it, in the
// order the locations were given. IDs that are not in the catalog are keys
// too.
type Index map[string][]model.Location

// ByRequirement indexes locations under every requirement ID they carry.
// A location tagged with three IDs appears under three keys.
func ByRequirement(locs []model.Location) Index {
	idx := make(Index)
	for _, loc := range locs {
		for _, id := range loc.RequirementIDs {
			idx[id] = append(idx[id], loc)
		}
	}
	return idx
}

// IDs returns the keys of the index in sorted order.
func (idx Index) IDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UniqueLocations returns the distinct locations of the index, sorted by
// name. Locations are distinct by Key alone; when several records share a
// name, the first met while walking the IDs in sorted order is kept.
func UniqueLocations(idx Index) []model.Location {
	seen := make(map[string]struct{})
	var unique []model.Location
	for _, id := range idx.IDs() {
		for _, loc := range idx[id] {
			if _, ok := seen[loc.Key()]; ok {
				continue
			}
			seen[loc.Key()] = struct{}{}
			unique = append(unique, loc)
		}
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Key() < unique[j].Key()
	})
	return unique
}

// Collision lists different records that share one name, and are therefore
// merged into a single location.
type Collision struct {
	Name    string
	Records []model.Location
}

// NameCollisions finds names shared by records that differ in any field.
func NameCollisions(idx Index) []Collision {
	byName := make(map[string][]model.Location)
	for _, id := range idx.IDs() {
		for _, loc := range idx[id] {
			records := byName[loc.Key()]
			if !containsRecord(records, loc) {
				byName[loc.Key()] = append(records, loc)
			}
		}
	}

	var collisions []Collision
	for name, records := range byName {
		if len(records) > 1 {
			collisions = append(collisions, Collision{Name: name, Records: records})
		}
	}
	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].Name < collisions[j].Name
	})
	return collisions
}

func containsRecord(records []model.Location, loc model.Location) bool {
	for _, r := range records {
		if r.SameRecord(loc) {
			return true
		}
	}
	return false
}

// CatalogIDs returns the set of requirement IDs in the catalog.
func CatalogIDs(reqs []model.Requirement) map[string]struct{} {
	ids := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// InvalidTags returns the entries of idx whose ID is not in the catalog.
// These are authoring errors in the annotations: typos or stale IDs.
func InvalidTags(catalogIDs map[string]struct{}, idx Index) Index {
	invalid := make(Index)
	for id, locs := range idx {
		if _, ok := catalogIDs[id]; !ok {
			invalid[id] = locs
		}
	}
	return invalid
}

// MergeInvalid combines the invalid tags of implementation and test
// locations, implementation locations first for each ID.
func MergeInvalid(impl, tests Index) Index {
	merged := make(Index, len(impl)+len(tests))
	for _, src := range []Index{impl, tests} {
		for _, id := range src.IDs() {
			merged[id] = append(merged[id], src[id]...)
		}
	}
	return merged
}

// PartitionByTestCoverage splits reqs into those with at least one test
// location and those with none. Both keep the order of reqs.
func PartitionByTestCoverage(reqs []model.Requirement, tests Index) (with, without []model.Requirement) {
	for _, r := range reqs {
		if len(tests[r.ID]) > 0 {
			with = append(with, r)
		} else {
			without = append(without, r)
		}
	}
	return with, without
}

// SpecificationIDs returns every specification cited by reqs, sorted.
func SpecificationIDs(reqs []model.Requirement) []string {
	set := make(map[string]struct{})
	for _, r := range reqs {
		for _, s := range r.Specifications {
			set[s] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
