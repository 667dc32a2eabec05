package xref

import "github.com/phobologic/reqtrace/internal/model"

// Trace is the complete cross-reference between a catalog and the
// extracted locations, ready for rendering.
type Trace struct {
	Requirements    []model.Requirement
	Implementations Index
	Tests           Index

	WithTests    []model.Requirement
	WithoutTests []model.Requirement
	Invalid      Index
	Collisions   []Collision

	UniqueImplementations int
	UniqueTests           int
}

// Build indexes impl and tests by requirement and derives every view the
// reports need. reqs must be in catalog order.
func Build(reqs []model.Requirement, impl, tests []model.Location) *Trace {
	t := &Trace{
		Requirements:    reqs,
		Implementations: ByRequirement(impl),
		Tests:           ByRequirement(tests),
	}

	t.WithTests, t.WithoutTests = PartitionByTestCoverage(reqs, t.Tests)

	ids := CatalogIDs(reqs)
	t.Invalid = MergeInvalid(InvalidTags(ids, t.Implementations), InvalidTags(ids, t.Tests))

	t.Collisions = append(NameCollisions(t.Implementations), NameCollisions(t.Tests)...)
	t.UniqueImplementations = len(UniqueLocations(t.Implementations))
	t.UniqueTests = len(UniqueLocations(t.Tests))
	return t
}
