// Command genmock writes a deterministic set of raw input CSVs exercising
// every cleaning rule: duplicate and missing IDs, Python-literal lists, float
// runtimes, 0-5 external ratings, missing and NaN user ratings, and legacy
// movie IDs.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw -movies 200 -users 40 -seed 7
//
// File names follow MOVIES_FILE, RATINGS_FILE and USER_RATINGS_FILE; -out
// defaults to RAW_DIR.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/movie-ratings-etl/internal/config"
)

var (
	genres    = []string{"Action", "Comedy", "Crime", "Drama", "Horror", "Mystery", "Romance", "Science Fiction", "Thriller"}
	languages = []string{"English", "Français", "Español", "Deutsch", "日本語"}
	words     = []string{"Night", "Return", "Dark", "City", "Last", "River", "Shadow", "Summer", "Machine", "Garden", "Silent", "Road"}
)

type movie struct {
	id      string
	title   string
	year    int
	runtime int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := flag.String("out", cfg.RawDir, "directory to write the raw CSVs to")
	nMovies := flag.Int("movies", 200, "number of catalog movies")
	nUsers := flag.Int("users", 40, "number of power users")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	if *nMovies < 4 || *nUsers < 1 {
		return fmt.Errorf("need at least 4 movies and 1 user")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	movies := genMovies(rng, *nMovies)

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{cfg.MoviesFile, []string{"movie_id", "movie_title", "genres", "original_language", "image_url", "runtime", "spoken_languages", "year_released"}, movieRows(rng, movies)},
		{cfg.RatingsFile, []string{"id", "name", "date", "tagline", "description", "minute", "rating"}, ratingRows(rng, movies)},
		{cfg.UserRatingsFile, []string{"movie_id", "rating_val", "user_id"}, userRatingRows(rng, movies, *nUsers)},
	}
	for _, f := range files {
		path := filepath.Join(*out, f.name)
		if err := writeCSV(path, f.header, f.rows); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("wrote %s: %d rows", path, len(f.rows))
	}
	return nil
}

func genMovies(rng *rand.Rand, n int) []movie {
	movies := make([]movie, 0, n+2)
	seen := make(map[string]bool, n)
	for len(movies) < n {
		title := words[rng.IntN(len(words))] + " " + words[rng.IntN(len(words))]
		year := 1970 + rng.IntN(55)
		id := slug(title) + "-" + strconv.Itoa(year)
		if seen[id] {
			continue
		}
		seen[id] = true
		movies = append(movies, movie{id: id, title: title, year: year, runtime: 80 + rng.IntN(100)})
	}
	// Known identifier drift: the same film listed under two IDs and years.
	return append(movies,
		movie{id: "ex-machina-2014", title: "Ex Machina", year: 2014, runtime: 108},
		movie{id: "ex-machina-2015", title: "Ex Machina", year: 2015, runtime: 108},
	)
}

func movieRows(rng *rand.Rand, movies []movie) [][]string {
	rows := make([][]string, 0, len(movies)+3)
	for i, m := range movies {
		runtime := strconv.Itoa(m.runtime)
		if i%3 == 0 {
			runtime += ".0"
		}
		rows = append(rows, []string{
			m.id, m.title, list(rng, genres, 1+rng.IntN(3), i%2 == 0), "en",
			"/posters/" + m.id + ".jpg", runtime, spoken(rng, i), strconv.Itoa(m.year),
		})
	}
	// A row with no ID and a duplicate of the first movie.
	rows = append(rows,
		[]string{"", "Untitled", "[]", "en", "", "90", "[]", "2001"},
		append([]string(nil), rows[0]...),
	)
	return rows
}

// spoken renders spoken languages, sometimes with the empty entries the
// upstream export leaves behind.
func spoken(rng *rand.Rand, i int) string {
	s := list(rng, languages, 1+rng.IntN(2), i%2 == 1)
	if i%5 == 0 {
		s = strings.TrimSuffix(s, "]") + ", '']"
		if strings.HasPrefix(s, "[\"") {
			s = strings.Replace(s, ", '']", `, ""]`, 1)
		}
	}
	return s
}

func ratingRows(rng *rand.Rand, movies []movie) [][]string {
	rows := make([][]string, 0, len(movies))
	for i, m := range movies {
		rating := strconv.FormatFloat(1+rng.Float64()*4, 'f', 2, 64)
		if i%11 == 0 {
			rating = ""
		}
		rows = append(rows, []string{
			strconv.Itoa(i), m.title, strconv.Itoa(m.year), "", "", strconv.Itoa(m.runtime), rating,
		})
	}
	return append(rows, []string{strconv.Itoa(len(movies)), "Unknown Film", "", "", "", "", "3.1"})
}

func userRatingRows(rng *rand.Rand, movies []movie, nUsers int) [][]string {
	var rows [][]string
	for u := range nUsers {
		user := fmt.Sprintf("user_%03d", u)
		for _, m := range movies {
			if rng.Float64() > 0.15 {
				continue
			}
			val := strconv.Itoa(1 + rng.IntN(10))
			switch rng.IntN(20) {
			case 0:
				val = ""
			case 1:
				val = "NaN"
			case 2:
				rows = append(rows, []string{m.id, val, user})
			}
			rows = append(rows, []string{m.id, val, user})
		}
	}
	return append(rows, []string{"", "7", "user_000"}, []string{movies[0].id, "5", ""})
}

func list(rng *rand.Rand, from []string, n int, python bool) string {
	picked := make([]string, 0, n)
	for _, i := range rng.Perm(len(from))[:n] {
		if python {
			picked = append(picked, "'"+from[i]+"'")
		} else {
			picked = append(picked, strconv.Quote(from[i]))
		}
	}
	return "[" + strings.Join(picked, ", ") + "]"
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
