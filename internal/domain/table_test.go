package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Heat", "Heat"},
		{"int64", int64(118), "118"},
		{"int", 7, "7"},
		{"float", 9.12, "9.12"},
		{"whole float", 9.0, "9"},
		{"list", []string{"Crime", "Drama"}, `["Crime","Drama"]`},
		{"nil list", []string(nil), "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.in))
		})
	}
}

func TestEnrichedMoviesTable(t *testing.T) {
	movies := []EnrichedMovie{
		{
			MergedMovie:      MergedMovie{Movie: movie("a", "A", 2000), Rating: 8.4},
			PowerUsersRating: ptr(7.5),
			RatingsCount:     ptr(2),
		},
		{MergedMovie: MergedMovie{Movie: movie("b", "B", 2001), Rating: 6}},
	}
	tbl := EnrichedMoviesTable("rf_movies", movies)

	assert.Equal(t, "rf_movies", tbl.Name)
	assert.Equal(t, []string{
		"movie_id", "movie_title", "genres", "original_language", "image_url", "runtime",
		"spoken_languages", "year_released", "rating", "power_users_rating", "ratings_count",
	}, tbl.ColumnNames())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []any{7.5, int64(2)}, tbl.Rows[0][9:])
	assert.Equal(t, []any{nil, nil}, tbl.Rows[1][9:])
	assert.Equal(t, "b", tbl.RowKey(1))

	raw := tbl.Raw()
	assert.Equal(t, "", raw.Rows[1][9])
	assert.Equal(t, "[]", raw.Rows[1][2])
}

func TestOutputs_Tables(t *testing.T) {
	out := Outputs{
		UserRatings:    []UserRating{{MovieID: "a", UserID: 1, RatingVal: 8}},
		UserAggregates: []UserAggregate{{UserID: 1, UserAverageRating: 8, RatingCount: 1}},
	}
	tables := out.Tables("rf_")
	require.Len(t, tables, 3)
	assert.Equal(t, "rf_movies", tables[0].Name)
	assert.Equal(t, "rf_user_ratings", tables[1].Name)
	assert.Equal(t, "rf_aggregated_user_ratings", tables[2].Name)
	assert.Equal(t, "a|1", tables[1].RowKey(0))
	assert.Equal(t, 0, tables[0].Len())
}

func TestRawTable_Column(t *testing.T) {
	raw := RawTable{Name: "t", Columns: []string{"a", "b"}}
	i, err := raw.Column("b")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = raw.Column("c")
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, `table t: missing required column "c"`, se.Error())

	assert.Equal(t, "", cell([]string{"x"}, 3))
	assert.Equal(t, " x ", cell([]string{" x "}, 0), "values are not trimmed")
	for _, na := range []string{"NaN", "nan", "NA", "N/A", "null", "NULL", "None", "<NA>", "#N/A"} {
		assert.Equal(t, "", cell([]string{na}, 0), na)
	}
	assert.Equal(t, "Nan Goldin", cell([]string{"Nan Goldin"}, 0))
}
