package domain

// Movie is a cleaned movie catalog row. ID is unique after CleanMovies.
type Movie struct {
	ID               string   `json:"movie_id"`
	Title            string   `json:"movie_title"`
	Genres           []string `json:"genres"`
	OriginalLanguage string   `json:"original_language"`
	ImageURL         string   `json:"image_url"`
	Runtime          int      `json:"runtime"`
	SpokenLanguages  []string `json:"spoken_languages"`
	YearReleased     int      `json:"year_released"`
}

// ExternalRating is a cleaned row of the external ratings catalog. It has no
// stable key and is matched to movies by (Title, Year).
type ExternalRating struct {
	Title   string   `json:"name"`
	Year    *int     `json:"date"`
	Runtime *int     `json:"minute"`
	Rating  *float64 `json:"rating"` // 0-10 after StandardiseRating
}

// UserRating is one power user's rating of one movie. At most one row exists
// per (MovieID, UserID) after CleanUserRatings.
type UserRating struct {
	MovieID   string  `json:"movie_id"`
	UserID    int     `json:"user_id"`
	RatingVal float64 `json:"rating_val"`
}

// MergedMovie is a catalog movie with its confirmed external rating.
type MergedMovie struct {
	Movie
	Rating float64 `json:"rating"`
}

// EnrichedMovie is a merged movie with power-user aggregates. Both aggregate
// fields are nil when no power user rated the movie.
type EnrichedMovie struct {
	MergedMovie
	PowerUsersRating *float64 `json:"power_users_rating"`
	RatingsCount     *int     `json:"ratings_count"`
}

// UserAggregate summarises one power user's ratings.
type UserAggregate struct {
	UserID            int     `json:"user_id"`
	UserAverageRating float64 `json:"user_average_rating"`
	RatingCount       int     `json:"rating_count"`
}

// Outputs are the three tables a pipeline run produces.
type Outputs struct {
	Movies         []EnrichedMovie
	UserRatings    []UserRating
	UserAggregates []UserAggregate
}

// Output table base names; loaders prepend a configurable prefix.
const (
	TableMovies         = "movies"
	TableUserRatings    = "user_ratings"
	TableUserAggregates = "aggregated_user_ratings"
)

// Tables renders the outputs with prefix prepended to each table name.
func (o Outputs) Tables(prefix string) []Table {
	return []Table{
		EnrichedMoviesTable(prefix+TableMovies, o.Movies),
		UserRatingsTable(prefix+TableUserRatings, o.UserRatings),
		UserAggregatesTable(prefix+TableUserAggregates, o.UserAggregates),
	}
}

var movieColumns = []Column{
	{Name: "movie_id", Type: TypeText},
	{Name: "movie_title", Type: TypeText},
	{Name: "genres", Type: TypeList},
	{Name: "original_language", Type: TypeText},
	{Name: "image_url", Type: TypeText},
	{Name: "runtime", Type: TypeInteger},
	{Name: "spoken_languages", Type: TypeList},
	{Name: "year_released", Type: TypeInteger},
}

func movieCells(m Movie) []any {
	return []any{
		m.ID,
		m.Title,
		nonNil(m.Genres),
		m.OriginalLanguage,
		m.ImageURL,
		int64(m.Runtime),
		nonNil(m.SpokenLanguages),
		int64(m.YearReleased),
	}
}

// MoviesTable renders cleaned movies.
func MoviesTable(name string, movies []Movie) Table {
	rows := make([][]any, len(movies))
	for i, m := range movies {
		rows[i] = movieCells(m)
	}
	return Table{Name: name, Columns: movieColumns, Key: []string{"movie_id"}, Rows: rows}
}

// ExternalRatingsTable renders cleaned external ratings.
func ExternalRatingsTable(name string, ratings []ExternalRating) Table {
	rows := make([][]any, len(ratings))
	for i, r := range ratings {
		rows[i] = []any{r.Title, intCell(r.Year), intCell(r.Runtime), floatCell(r.Rating)}
	}
	return Table{
		Name: name,
		Columns: []Column{
			{Name: "name", Type: TypeText},
			{Name: "date", Type: TypeInteger},
			{Name: "minute", Type: TypeInteger},
			{Name: "rating", Type: TypeReal},
		},
		Key:  []string{"name", "date"},
		Rows: rows,
	}
}

// UserRatingsTable renders cleaned user ratings.
func UserRatingsTable(name string, ratings []UserRating) Table {
	rows := make([][]any, len(ratings))
	for i, r := range ratings {
		rows[i] = []any{r.MovieID, int64(r.UserID), r.RatingVal}
	}
	return Table{
		Name: name,
		Columns: []Column{
			{Name: "movie_id", Type: TypeText},
			{Name: "user_id", Type: TypeInteger},
			{Name: "rating_val", Type: TypeReal},
		},
		Key:  []string{"movie_id", "user_id"},
		Rows: rows,
	}
}

// EnrichedMoviesTable renders the dashboard's movie table.
func EnrichedMoviesTable(name string, movies []EnrichedMovie) Table {
	cols := make([]Column, 0, len(movieColumns)+3)
	cols = append(cols, movieColumns...)
	cols = append(cols,
		Column{Name: "rating", Type: TypeReal},
		Column{Name: "power_users_rating", Type: TypeReal},
		Column{Name: "ratings_count", Type: TypeInteger},
	)
	rows := make([][]any, len(movies))
	for i, m := range movies {
		rows[i] = append(movieCells(m.Movie), m.Rating, floatCell(m.PowerUsersRating), intCell(m.RatingsCount))
	}
	return Table{Name: name, Columns: cols, Key: []string{"movie_id"}, Rows: rows}
}

// UserAggregatesTable renders per-user aggregates.
func UserAggregatesTable(name string, aggs []UserAggregate) Table {
	rows := make([][]any, len(aggs))
	for i, a := range aggs {
		rows[i] = []any{int64(a.UserID), a.UserAverageRating, int64(a.RatingCount)}
	}
	return Table{
		Name: name,
		Columns: []Column{
			{Name: "user_id", Type: TypeInteger},
			{Name: "user_average_rating", Type: TypeReal},
			{Name: "rating_count", Type: TypeInteger},
		},
		Key:  []string{"user_id"},
		Rows: rows,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
