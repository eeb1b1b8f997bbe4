package utils

import "github.com/jackc/pgx/v5/pgtype"

// NumericToFloat64 converts a Postgres numeric for JSON output. Order totals
// stay well within float64 precision.
func NumericToFloat64(value pgtype.Numeric) float64 {
	if !value.Valid {
		return 0
	}
	f, err := value.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}
