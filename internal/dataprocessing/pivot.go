package dataprocessing

import (
	"errors"
	"fmt"
	"sort"

	"fmrreport/pkg/contracts/domain"
)

// ErrDuplicateReading means a (session, feature) pair reached the pivot twice,
// i.e. the input was not aggregated.
var ErrDuplicateReading = errors.New("duplicate reading for pivot cell")

// Pivot reshapes aggregated readings into one row per session with one column
// per distinct feature name. A cell is missing when the pair never occurred or
// its mean is absent. Rows come out ordered by machine, timestamp, fixture and
// drawing; columns are sorted by name.
func Pivot(rows []domain.AggregatedRow) (*domain.WideTable, error) {
	type sessionMapKey struct {
		unixNano int64
		org      string
		fixture  string
		drawing  string
	}

	sessions := make(map[sessionMapKey]int)
	columns := make(map[string]struct{})
	seen := make(map[aggregationMapKey]struct{}, len(rows))
	table := &domain.WideTable{}

	for _, r := range rows {
		k := mapKey(r.AggregationKey)
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("%w: %s / %s / %q", ErrDuplicateReading,
				r.OrganizationName, r.CreatedAt.Format("2006-01-02 15:04:05"), r.FeatureName)
		}
		seen[k] = struct{}{}
		columns[r.FeatureName] = struct{}{}

		sk := sessionMapKey{k.unixNano, k.org, k.fixture, k.drawing}
		idx, ok := sessions[sk]
		if !ok {
			idx = len(table.Rows)
			sessions[sk] = idx
			table.Rows = append(table.Rows, domain.WideRow{
				SessionKey: r.SessionKey,
				Features:   make(map[string]domain.Value),
			})
		}
		if r.Actual.Valid {
			table.Rows[idx].Features[r.FeatureName] = r.Actual
		}
	}

	table.Columns = make([]string, 0, len(columns))
	for name := range columns {
		table.Columns = append(table.Columns, name)
	}
	sort.Strings(table.Columns)

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return compareSession(table.Rows[i].SessionKey, table.Rows[j].SessionKey) < 0
	})

	return table, nil
}
