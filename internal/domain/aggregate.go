package domain

import "sort"

type ratingStats struct {
	sum float64
	n   int
}

func (s ratingStats) mean() float64 { return round2(mean(s.sum, s.n)) }

// EnrichMovies attaches the power-user mean rating and rating count to each
// merged movie. Every merged movie is kept; movies no power user rated get nil
// aggregates.
func EnrichMovies(merged []MergedMovie, ratings []UserRating) []EnrichedMovie {
	stats := make(map[string]*ratingStats)
	for _, r := range ratings {
		s, ok := stats[r.MovieID]
		if !ok {
			s = &ratingStats{}
			stats[r.MovieID] = s
		}
		s.sum += r.RatingVal
		s.n++
	}

	out := make([]EnrichedMovie, len(merged))
	for i, m := range merged {
		out[i] = EnrichedMovie{MergedMovie: m}
		if s, ok := stats[m.ID]; ok {
			avg, count := s.mean(), s.n
			out[i].PowerUsersRating = &avg
			out[i].RatingsCount = &count
		}
	}
	return out
}

// AggregateUserRatings computes each user's mean rating (two decimals) and
// rating count, ordered by user ID.
func AggregateUserRatings(ratings []UserRating) []UserAggregate {
	stats := make(map[int]*ratingStats)
	for _, r := range ratings {
		s, ok := stats[r.UserID]
		if !ok {
			s = &ratingStats{}
			stats[r.UserID] = s
		}
		s.sum += r.RatingVal
		s.n++
	}

	out := make([]UserAggregate, 0, len(stats))
	for id, s := range stats {
		out = append(out, UserAggregate{UserID: id, UserAverageRating: s.mean(), RatingCount: s.n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UserID < out[b].UserID })
	return out
}
