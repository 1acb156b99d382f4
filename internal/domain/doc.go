// Package domain models the movie catalog, the external ("Letterboxd") ratings
// catalog and the power-user ratings, and implements the pure transform stages
// that turn their raw extracts into the three dashboard tables.
//
// # Data Sources
//
// Three CSV extracts arrive as RawTable values:
//
//	unclean_movies.csv               movie_id, movie_title, genres, original_language,
//	                                 spoken_languages, runtime, year_released, image_url
//	unclean_movies_with_ratings.csv  id, name, date, minute, rating
//	unclean_user_ratings.csv         movie_id, rating_val, user_id
//
// An empty cell is a missing value. List columns (genres, spoken_languages)
// hold a textual list, either JSON (["Crime","Drama"]) or a Python literal
// (['Crime', 'Drama']).
//
// # Rating Scales
//
// Everything downstream uses a 0-10 scale. The external catalog rates on 0-5
// and is doubled by StandardiseRating; user rating_val is already 0-10.
//
// # Stage Order
//
//	CleanMovies ─────────┐
//	CleanRatings ────────┴─ MergeMovies ─┐
//	CleanUserRatings ────────────────────┴─ EnrichMovies
//	                 └───────────────────── AggregateUserRatings
//
// Each stage is a pure function of its inputs. Stages build new slices and never
// write into the slices they receive.
//
// # Identifier Drift
//
// The user-ratings source refers to a few movies under a legacy identifier
// (ex-machina-2014 for ex-machina-2015, black-panther for black-panther-2018).
// An AliasTable maps those legacy IDs to their canonical ID. CleanUserRatings
// rewrites aliases to the canonical ID; MergeMovies drops catalog rows whose ID
// is an alias.
package domain
