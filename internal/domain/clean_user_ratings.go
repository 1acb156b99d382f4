package domain

import (
	"math"
	"sort"
)

// CleanUserRatings removes incomplete rows, anonymises user IDs, rewrites
// legacy movie IDs to their canonical ID and collapses each (movie, user) pair
// into one row holding the mean of its distinct ratings.
//
// User IDs are assigned 1, 2, ... in order of first appearance of the raw
// identifier, so they are stable within a run but not across runs. The result
// is ordered by movie ID, then user ID.
func CleanUserRatings(raw RawTable, aliases AliasTable) ([]UserRating, error) {
	movieCol, err := raw.Column("movie_id")
	if err != nil {
		return nil, err
	}
	ratingCol, err := raw.Column("rating_val")
	if err != nil {
		return nil, err
	}
	userCol, err := raw.Column("user_id")
	if err != nil {
		return nil, err
	}

	anon := newAnonymiser()
	type pair struct {
		movieID string
		userID  int
	}
	type group struct {
		sum float64
		n   int
	}
	seenRows := make(map[UserRating]struct{}, raw.Len())
	groups := make(map[pair]*group)
	order := make([]pair, 0)

	for i, row := range raw.Rows {
		movieID, ratingRaw, rawUser := cell(row, movieCol), cell(row, ratingCol), cell(row, userCol)
		if movieID == "" || ratingRaw == "" || rawUser == "" {
			continue
		}
		val, err := parseFloat(ratingRaw)
		if err != nil {
			return nil, &ParseError{Table: raw.Name, Column: "rating_val", Row: i + 1, Value: ratingRaw, Err: err}
		}
		if math.IsNaN(val) {
			continue
		}

		r := UserRating{
			MovieID:   aliases.Canonical(movieID),
			UserID:    anon.id(rawUser),
			RatingVal: val,
		}
		// Exact duplicate rows count once towards the mean.
		if _, dup := seenRows[r]; dup {
			continue
		}
		seenRows[r] = struct{}{}

		k := pair{movieID: r.MovieID, userID: r.UserID}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
			order = append(order, k)
		}
		g.sum += r.RatingVal
		g.n++
	}

	sort.Slice(order, func(a, b int) bool {
		if order[a].movieID != order[b].movieID {
			return order[a].movieID < order[b].movieID
		}
		return order[a].userID < order[b].userID
	})

	out := make([]UserRating, len(order))
	for i, k := range order {
		g := groups[k]
		out[i] = UserRating{MovieID: k.movieID, UserID: k.userID, RatingVal: mean(g.sum, g.n)}
	}
	return out, nil
}

// anonymiser assigns dense integer IDs to raw identifiers in first-seen order.
type anonymiser struct {
	ids map[string]int
}

func newAnonymiser() *anonymiser {
	return &anonymiser{ids: make(map[string]int)}
}

func (a *anonymiser) id(raw string) int {
	if id, ok := a.ids[raw]; ok {
		return id
	}
	id := len(a.ids) + 1
	a.ids[raw] = id
	return id
}

// AnonymiseUserIDs maps each distinct raw identifier to 1, 2, ... in order of
// first appearance.
func AnonymiseUserIDs(raw []string) []int {
	a := newAnonymiser()
	out := make([]int, len(raw))
	for i, r := range raw {
		out[i] = a.id(r)
	}
	return out
}
