package dataprocessing

import (
	"fmrreport/pkg/contracts/domain"
)

var fixtureCycle = [...]string{domain.FixtureChuck1, domain.FixtureChuck2}

// AssignFixtures labels rows "Chuck 1", "Chuck 2", "Chuck 1", ... by their
// position inside each machine's sequence. The label depends only on the index,
// never on row content, so rows must already be in Normalize order.
//
// The input slice is not modified.
func AssignFixtures(rows []domain.NormalizedRow) []domain.NormalizedRow {
	out := make([]domain.NormalizedRow, len(rows))
	position := make(map[string]int)

	for i, row := range rows {
		idx := position[row.OrganizationName]
		row.Fixture = fixtureCycle[idx%len(fixtureCycle)]
		position[row.OrganizationName] = idx + 1
		out[i] = row
	}

	return out
}
