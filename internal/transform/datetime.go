package transform

import (
	"time"

	"datascope/internal/dataset"
)

// DatetimeFeature is one derivable component of a datetime column.
type DatetimeFeature string

const (
	FeatureYear      DatetimeFeature = "year"
	FeatureMonth     DatetimeFeature = "month"
	FeatureDay       DatetimeFeature = "day"
	FeatureHour      DatetimeFeature = "hour"
	FeatureQuarter   DatetimeFeature = "quarter"
	FeatureDayOfWeek DatetimeFeature = "dow"
	FeatureIsWeekend DatetimeFeature = "is_weekend"
)

// DecomposeDatetime appends the requested components of a datetime column
// as numeric columns (<column>_year, _month, ...) and returns their names.
// Day-of-week is 0=Monday..6=Sunday; is_weekend is a 0/1 indicator.
func DecomposeDatetime(ds *dataset.Dataset, column string, features []DatetimeFeature) ([]string, error) {
	const op = "datetime"
	c, ok := ds.Column(column)
	if !ok {
		return nil, incompatible(op, column, "column does not exist")
	}
	if c.Kind != dataset.KindDatetime {
		return nil, incompatible(op, column, "column is %s, not datetime", c.Kind)
	}
	if len(features) == 0 {
		return nil, incompatible(op, column, "no features selected")
	}

	var added []string
	for _, f := range features {
		extract, ok := datetimeExtractors[f]
		if !ok {
			return nil, incompatible(op, column, "unknown feature %q", f)
		}
		out := &dataset.Column{
			Name:    column + "_" + string(f),
			Kind:    dataset.KindNumeric,
			Integer: true,
			Floats:  make([]float64, ds.Rows()),
			Null:    make([]bool, ds.Rows()),
		}
		for i, t := range c.Times {
			if c.Null[i] {
				out.Null[i] = true
				continue
			}
			out.Floats[i] = float64(extract(t))
		}
		if err := ds.AddColumn(out); err != nil {
			return nil, err
		}
		added = append(added, out.Name)
	}
	return added, nil
}

var datetimeExtractors = map[DatetimeFeature]func(t time.Time) int{
	FeatureYear:    func(t time.Time) int { return t.Year() },
	FeatureMonth:   func(t time.Time) int { return int(t.Month()) },
	FeatureDay:     func(t time.Time) int { return t.Day() },
	FeatureHour:    func(t time.Time) int { return t.Hour() },
	FeatureQuarter: func(t time.Time) int { return (int(t.Month())-1)/3 + 1 },
	FeatureDayOfWeek: func(t time.Time) int {
		// time.Weekday has Sunday=0; shift to Monday=0 so the weekend
		// check is simply dayofweek >= 5.
		return (int(t.Weekday()) + 6) % 7
	},
	FeatureIsWeekend: func(t time.Time) int {
		if d := (int(t.Weekday()) + 6) % 7; d >= 5 {
			return 1
		}
		return 0
	},
}
