package domain

import "math"

// CleanRatings coerces the external ratings catalog. The synthetic id column is
// discarded, date and minute become nullable integers, and ratings are moved
// onto the 0-10 scale.
func CleanRatings(raw RawTable) ([]ExternalRating, error) {
	title := raw.optionalColumn("name", "movie_title")
	if title < 0 {
		return nil, &SchemaError{Table: raw.Name, Column: "name"}
	}
	date, err := raw.Column("date")
	if err != nil {
		return nil, err
	}
	rating, err := raw.Column("rating")
	if err != nil {
		return nil, err
	}
	minute, err := raw.Column("minute")
	if err != nil {
		return nil, err
	}

	out := make([]ExternalRating, 0, raw.Len())
	for i, row := range raw.Rows {
		r := ExternalRating{Title: cell(row, title)}

		if r.Year, err = nullableInt(cell(row, date)); err != nil {
			return nil, &ParseError{Table: raw.Name, Column: "date", Row: i + 1, Value: cell(row, date), Err: err}
		}
		if r.Runtime, err = nullableInt(cell(row, minute)); err != nil {
			return nil, &ParseError{Table: raw.Name, Column: "minute", Row: i + 1, Value: cell(row, minute), Err: err}
		}
		if v := cell(row, rating); v != "" {
			f, err := parseFloat(v)
			if err != nil {
				return nil, &ParseError{Table: raw.Name, Column: "rating", Row: i + 1, Value: v, Err: err}
			}
			if !math.IsNaN(f) {
				scaled := StandardiseRating(f)
				r.Rating = &scaled
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// StandardiseRating moves a 0-5 external rating onto the 0-10 scale.
func StandardiseRating(r float64) float64 {
	return r * 2
}
