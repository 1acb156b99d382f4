// Command validate checks the stage audit CSVs of a completed run for the
// properties every run must hold: unique movie IDs, no empty list entries,
// one rating per (movie, user), dense anonymised user IDs, no legacy movie
// IDs in the outputs, and aggregates that agree with the rows they summarise.
//
// Usage:
//
//	go run ./cmd/validate -dir data/processed
//
// -dir defaults to AUDIT_DIR; legacy IDs come from ALIAS_FILE.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/movie-ratings-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/movie-ratings-etl/internal/config"
	"github.com/couchcryptid/movie-ratings-etl/internal/domain"
	"github.com/couchcryptid/movie-ratings-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// audit holds the audit tables of one run.
type audit struct {
	movies      domain.RawTable
	userRatings domain.RawTable
	enriched    domain.RawTable
	aggregates  domain.RawTable
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	dir := flag.String("dir", cfg.AuditDir, "directory containing the stage audit CSVs")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*dir, cfg.AliasFile))
}

func run(dir, aliasFile string) int {
	fmt.Println("=== Movie Ratings Audit Validation ===")
	fmt.Println()

	aliases, err := config.LoadAliases(aliasFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	a, err := loadAudit(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(a, aliases)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d movies, %d user ratings, %d enriched movies, %d users\n",
		a.movies.Len(), a.userRatings.Len(), a.enriched.Len(), a.aggregates.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadAudit(dir string) (audit, error) {
	var a audit
	for _, f := range []struct {
		name string
		dst  *domain.RawTable
	}{
		{pipeline.AuditCleanedMovies, &a.movies},
		{pipeline.AuditCleanedUserRatings, &a.userRatings},
		{pipeline.AuditEnrichedMovies, &a.enriched},
		{pipeline.AuditUserAggregates, &a.aggregates},
	} {
		t, err := csvfile.ReadFile(f.name, filepath.Join(dir, f.name+".csv"))
		if err != nil {
			return audit{}, err
		}
		*f.dst = t
	}
	return a, nil
}

func validate(a audit, aliases domain.AliasTable) []*phase {
	return []*phase{
		validateMovies(a.movies),
		validateUserRatings(a.userRatings, aliases),
		validateEnriched(a.enriched, a.movies, a.userRatings, aliases),
		validateAggregates(a.aggregates, a.userRatings),
	}
}

func validateMovies(t domain.RawTable) *phase {
	p := &phase{name: "Cleaned movies"}
	ids := columns(p, t, "movie_id", "genres", "spoken_languages", "runtime")
	if ids == nil {
		return p
	}
	id, genres, spoken, runtime := ids[0], ids[1], ids[2], ids[3]

	seen := make(map[string]int, t.Len())
	for i, row := range t.Rows {
		line := i + 2
		switch {
		case row[id] == "":
			p.errorf("line %d: empty movie_id", line)
		case seen[row[id]] > 0:
			p.errorf("line %d: movie_id %q duplicates line %d", line, row[id], seen[row[id]])
		default:
			seen[row[id]] = line
		}
		for _, col := range []int{genres, spoken} {
			for _, item := range domain.ParseList(row[col]) {
				if item == "" {
					p.errorf("line %d: empty entry in %s %s", line, t.Columns[col], row[col])
					break
				}
			}
		}
		if _, err := strconv.Atoi(row[runtime]); err != nil {
			p.errorf("line %d: runtime %q is not an integer", line, row[runtime])
		}
	}
	return p
}

func validateUserRatings(t domain.RawTable, aliases domain.AliasTable) *phase {
	p := &phase{name: "Cleaned user ratings"}
	ids := columns(p, t, "movie_id", "user_id")
	if ids == nil {
		return p
	}
	movie, user := ids[0], ids[1]

	type pair struct{ movie, user string }
	pairs := make(map[pair]bool, t.Len())
	users := make(map[int]bool)
	for i, row := range t.Rows {
		line := i + 2
		k := pair{row[movie], row[user]}
		if pairs[k] {
			p.errorf("line %d: duplicate rating of %q by user %s", line, k.movie, k.user)
		}
		pairs[k] = true
		if aliases.IsAlias(row[movie]) {
			p.errorf("line %d: legacy movie_id %q", line, row[movie])
		}
		uid, err := strconv.Atoi(row[user])
		if err != nil {
			p.errorf("line %d: user_id %q is not an integer", line, row[user])
			continue
		}
		users[uid] = true
	}
	for uid := range users {
		if uid < 1 || uid > len(users) {
			p.errorf("user_id %d outside 1..%d", uid, len(users))
		}
	}
	return p
}

func validateEnriched(t, movies, userRatings domain.RawTable, aliases domain.AliasTable) *phase {
	p := &phase{name: "Merged and enriched movies"}
	ids := columns(p, t, "movie_id", "rating", "power_users_rating", "ratings_count")
	if ids == nil {
		return p
	}
	id, rating, power, count := ids[0], ids[1], ids[2], ids[3]

	if t.Len() > movies.Len() {
		p.errorf("%d enriched movies but only %d cleaned movies", t.Len(), movies.Len())
	}

	perMovie := make(map[string]int)
	if col, err := userRatings.Column("movie_id"); err == nil {
		for _, row := range userRatings.Rows {
			perMovie[row[col]]++
		}
	}

	seen := make(map[string]bool, t.Len())
	for i, row := range t.Rows {
		line := i + 2
		if seen[row[id]] {
			p.errorf("line %d: duplicate movie_id %q", line, row[id])
		}
		seen[row[id]] = true
		if aliases.IsAlias(row[id]) {
			p.errorf("line %d: legacy movie_id %q", line, row[id])
		}
		if row[rating] == "" {
			p.errorf("line %d: %q has no rating", line, row[id])
		}
		if (row[power] == "") != (row[count] == "") {
			p.errorf("line %d: power_users_rating %q and ratings_count %q disagree", line, row[power], row[count])
		}
		want := perMovie[row[id]]
		got := 0
		if row[count] != "" {
			got, _ = strconv.Atoi(row[count])
		}
		if got != want {
			p.errorf("line %d: ratings_count %d for %q, %d user ratings", line, got, row[id], want)
		}
	}
	return p
}

func validateAggregates(t, userRatings domain.RawTable) *phase {
	p := &phase{name: "Aggregated user ratings"}
	ids := columns(p, t, "user_id", "rating_count")
	if ids == nil {
		return p
	}
	user, count := ids[0], ids[1]

	perUser := make(map[string]int)
	if col, err := userRatings.Column("user_id"); err == nil {
		for _, row := range userRatings.Rows {
			perUser[row[col]]++
		}
	}
	if t.Len() != len(perUser) {
		p.errorf("%d aggregate rows for %d users", t.Len(), len(perUser))
	}
	for i, row := range t.Rows {
		n, err := strconv.Atoi(row[count])
		if err != nil || n != perUser[row[user]] {
			p.errorf("line %d: user %s rating_count %q, %d ratings", i+2, row[user], row[count], perUser[row[user]])
		}
	}
	return p
}

// columns resolves column indexes, recording a phase error and returning nil
// when any is missing.
func columns(p *phase, t domain.RawTable, names ...string) []int {
	idx := make([]int, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			p.errorf("%v", err)
			return nil
		}
		idx[i] = c
	}
	return idx
}
