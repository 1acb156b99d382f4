package domain

// CleanMovies coerces the raw movie catalog and drops rows without a movie_id
// and repeated movie_ids, keeping the first occurrence. Row order is otherwise
// preserved.
func CleanMovies(raw RawTable) ([]Movie, error) {
	cols, err := movieRawColumns(raw)
	if err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, raw.Len())
	seen := make(map[string]struct{}, raw.Len())
	for i, row := range raw.Rows {
		id := cell(row, cols.id)
		if id == "" {
			continue
		}

		m, err := parseMovieRow(raw.Name, i+1, row, cols)
		if err != nil {
			return nil, err
		}
		m.ID = id

		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		movies = append(movies, m)
	}
	return movies, nil
}

type movieColumnIndex struct {
	id, title, genres, language, image, runtime, spoken, year int
}

func movieRawColumns(raw RawTable) (movieColumnIndex, error) {
	var idx movieColumnIndex
	required := []struct {
		name string
		dst  *int
	}{
		{"movie_id", &idx.id},
		{"movie_title", &idx.title},
		{"genres", &idx.genres},
		{"original_language", &idx.language},
		{"image_url", &idx.image},
		{"spoken_languages", &idx.spoken},
		{"runtime", &idx.runtime},
		{"year_released", &idx.year},
	}
	for _, c := range required {
		i, err := raw.Column(c.name)
		if err != nil {
			return idx, err
		}
		*c.dst = i
	}
	return idx, nil
}

// parseMovieRow coerces every column of a row. Duplicate rows are coerced too,
// so a malformed duplicate still fails the stage.
func parseMovieRow(table string, rowNum int, row []string, cols movieColumnIndex) (Movie, error) {
	runtimeRaw := cell(row, cols.runtime)
	runtime, err := truncateInt(runtimeRaw)
	if err != nil {
		return Movie{}, &ParseError{Table: table, Column: "runtime", Row: rowNum, Value: runtimeRaw, Err: err}
	}
	yearRaw := cell(row, cols.year)
	year, err := truncateInt(yearRaw)
	if err != nil {
		return Movie{}, &ParseError{Table: table, Column: "year_released", Row: rowNum, Value: yearRaw, Err: err}
	}

	return Movie{
		Title:            cell(row, cols.title),
		Genres:           ParseList(cell(row, cols.genres)),
		OriginalLanguage: cell(row, cols.language),
		ImageURL:         cell(row, cols.image),
		Runtime:          runtime,
		SpokenLanguages:  nonEmpty(ParseList(cell(row, cols.spoken))),
		YearReleased:     year,
	}, nil
}

// nonEmpty drops empty strings, returning a new slice.
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
