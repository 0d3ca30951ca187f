package dataprocessing

import (
	"sort"

	"fmrreport/pkg/contracts/domain"
)

// Aggregate averages every reading that shares (timestamp, machine, fixture,
// drawing, feature). Rows without a drawing number cannot form a key and are
// skipped; the second return value is how many were skipped.
func Aggregate(rows []domain.NormalizedRow) ([]domain.AggregatedRow, int) {
	readings := make([]domain.AggregatedRow, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		if !row.HasDrawingNo {
			skipped++
			continue
		}
		readings = append(readings, domain.AggregatedRow{
			AggregationKey: domain.AggregationKey{
				SessionKey: domain.SessionKey{
					CreatedAt:        row.CreatedAt,
					OrganizationName: row.OrganizationName,
					Fixture:          row.Fixture,
					DrawingNo:        row.DrawingNo,
				},
				FeatureName: row.FeatureName,
			},
			Actual: row.Actual,
		})
	}

	return AggregateReadings(readings), skipped
}

type meanAccumulator struct {
	key   domain.AggregationKey
	sum   float64
	count int
}

// AggregateReadings collapses readings with equal keys into their arithmetic
// mean. Absent values do not count; a key with no present values yields an
// absent mean. Output is sorted by key, so the function is idempotent.
func AggregateReadings(readings []domain.AggregatedRow) []domain.AggregatedRow {
	index := make(map[aggregationMapKey]*meanAccumulator, len(readings))
	order := make([]*meanAccumulator, 0, len(readings))

	for _, r := range readings {
		k := mapKey(r.AggregationKey)
		acc, ok := index[k]
		if !ok {
			acc = &meanAccumulator{key: r.AggregationKey}
			index[k] = acc
			order = append(order, acc)
		}
		if r.Actual.Valid {
			acc.sum += r.Actual.Float
			acc.count++
		}
	}

	out := make([]domain.AggregatedRow, len(order))
	for i, acc := range order {
		mean := domain.None()
		if acc.count > 0 {
			mean = domain.Some(acc.sum / float64(acc.count))
		}
		out[i] = domain.AggregatedRow{AggregationKey: acc.key, Actual: mean}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AggregationKey, out[j].AggregationKey
		if c := compareSession(a.SessionKey, b.SessionKey); c != 0 {
			return c < 0
		}
		return a.FeatureName < b.FeatureName
	})

	return out
}

// aggregationMapKey is AggregationKey with the timestamp reduced to a
// comparable instant; time.Time values with different locations would
// otherwise never be equal as map keys.
type aggregationMapKey struct {
	unixNano int64
	org      string
	fixture  string
	drawing  string
	feature  string
}

func mapKey(k domain.AggregationKey) aggregationMapKey {
	return aggregationMapKey{
		unixNano: k.CreatedAt.UnixNano(),
		org:      k.OrganizationName,
		fixture:  k.Fixture,
		drawing:  k.DrawingNo,
		feature:  k.FeatureName,
	}
}

// compareSession orders sessions by machine, timestamp, fixture, then drawing.
func compareSession(a, b domain.SessionKey) int {
	switch {
	case a.OrganizationName != b.OrganizationName:
		return compareStrings(a.OrganizationName, b.OrganizationName)
	case !a.CreatedAt.Equal(b.CreatedAt):
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	case a.Fixture != b.Fixture:
		return compareStrings(a.Fixture, b.Fixture)
	default:
		return compareStrings(a.DrawingNo, b.DrawingNo)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
