package domain

import (
	"math"
	"sort"
)

type titleYear struct {
	title string
	year  int
}

// MergeMovies attaches the external rating to each movie by matching title and
// release year. When a movie matches several ratings rows (or several movies
// share a title and year) the highest rating wins for each movie ID; equal
// ratings keep catalog order. Movies whose ID is a legacy alias, and movies
// with no rating, are dropped. The result is ordered by rating, highest first.
func MergeMovies(movies []Movie, ratings []ExternalRating, aliases AliasTable) []MergedMovie {
	byKey := make(map[titleYear][]int, len(ratings))
	for i, r := range ratings {
		if r.Year == nil {
			continue
		}
		k := titleYear{title: r.Title, year: *r.Year}
		byKey[k] = append(byKey[k], i)
	}

	type candidate struct {
		movie  Movie
		rating *float64
	}
	joined := make([]candidate, 0, len(movies))
	for _, m := range movies {
		matches := byKey[titleYear{title: m.Title, year: m.YearReleased}]
		if len(matches) == 0 {
			joined = append(joined, candidate{movie: m})
			continue
		}
		for _, ri := range matches {
			joined = append(joined, candidate{movie: m, rating: ratings[ri].Rating})
		}
	}

	// Missing and NaN ratings sort last so a rated match always beats an
	// unrated one.
	sort.SliceStable(joined, func(a, b int) bool {
		ra, rb := joined[a].rating, joined[b].rating
		switch {
		case !rated(ra):
			return false
		case !rated(rb):
			return true
		default:
			return *ra > *rb
		}
	})

	out := make([]MergedMovie, 0, len(movies))
	seen := make(map[string]struct{}, len(movies))
	for _, c := range joined {
		if _, dup := seen[c.movie.ID]; dup {
			continue
		}
		seen[c.movie.ID] = struct{}{}
		if aliases.IsAlias(c.movie.ID) || !rated(c.rating) {
			continue
		}
		out = append(out, MergedMovie{Movie: c.movie, Rating: *c.rating})
	}
	return out
}

func rated(r *float64) bool {
	return r != nil && !math.IsNaN(*r)
}
