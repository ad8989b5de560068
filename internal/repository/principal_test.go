package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cinedb/internal/model"
	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/testutil"
)

func TestCreditsForMovie(t *testing.T) {
	db := testutil.DB(t)
	repos := repository.NewRepositories(db)

	require.NoError(t, db.Create(&model.Movie{
		Tconst: "tt0468569", TitleType: "movie",
		PrimaryTitle: "The Dark Knight", OriginalTitle: "The Dark Knight",
	}).Error)
	require.NoError(t, db.Create(&[]model.Person{
		{Nconst: "nm0000288", PrimaryName: "Christian Bale"},
		{Nconst: "nm0005132", PrimaryName: "Heath Ledger"},
		{Nconst: "nm0634240", PrimaryName: "Christopher Nolan"},
		{Nconst: "nm0333060", PrimaryName: "David S. Goyer"},
	}).Error)
	require.NoError(t, db.Create(&[]model.Principal{
		{MovieID: "tt0468569", PersonID: "nm0005132", Ordering: 2, Category: "actor", Characters: `["Joker"]`},
		{MovieID: "tt0468569", PersonID: "nm0634240", Ordering: 5, Category: "director"},
		{MovieID: "tt0468569", PersonID: "nm0000288", Ordering: 1, Category: "actor", Characters: `["Bruce Wayne","Batman"]`},
		{MovieID: "tt0468569", PersonID: "nm0333060", Ordering: 6, Category: "writer"},
		{MovieID: "tt0468569", PersonID: "nm0634240", Ordering: 7, Category: "producer"},
	}).Error)

	credits, err := repos.Principal.CreditsForMovie("tt0468569")
	require.NoError(t, err)

	// 只包含演员和导演，编剧、制片人被过滤掉
	require.Len(t, credits, 3)

	// 按排位升序
	assert.Equal(t, 1, credits[0].Ordering)
	assert.Equal(t, 2, credits[1].Ordering)
	assert.Equal(t, 5, credits[2].Ordering)

	// 关联影人已取出
	require.NotNil(t, credits[0].Person)
	assert.Equal(t, "Christian Bale", credits[0].Person.PrimaryName)
	assert.Equal(t, "director", credits[2].Category)
	require.NotNil(t, credits[2].Person)
	assert.Equal(t, "Christopher Nolan", credits[2].Person.PrimaryName)

	// 其他影片不受影响
	none, err := repos.Principal.CreditsForMovie("tt0000000")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRatedTitles(t *testing.T) {
	db := testutil.DB(t)
	repos := repository.NewRepositories(db)

	require.NoError(t, db.Create(&[]model.Movie{
		{Tconst: "tt0111161", TitleType: "movie", PrimaryTitle: "The Shawshank Redemption", OriginalTitle: "The Shawshank Redemption"},
		{Tconst: "tt0068646", TitleType: "movie", PrimaryTitle: "The Godfather", OriginalTitle: "The Godfather"},
		{Tconst: "tt0000002", TitleType: "short", PrimaryTitle: "Le clown et ses chiens", OriginalTitle: "Le clown et ses chiens"},
		{Tconst: "tt0000003", TitleType: "short", PrimaryTitle: "Pauvre Pierrot", OriginalTitle: "Pauvre Pierrot"},
	}).Error)
	require.NoError(t, db.Create(&[]model.Rating{
		{MovieID: "tt0111161", AverageRating: floatPtr(9.3), NumVotes: intPtr(2800000)},
		{MovieID: "tt0068646", AverageRating: floatPtr(9.2), NumVotes: intPtr(2000000)},
		{MovieID: "tt0000002", AverageRating: floatPtr(5.5), NumVotes: intPtr(0)},
		{MovieID: "tt0000003", AverageRating: floatPtr(6.5)},
	}).Error)

	titles, err := repos.Rating.RatedTitles()
	require.NoError(t, err)

	// 票数为零或缺失的不参与
	require.Len(t, titles, 2)

	byTconst := make(map[string]model.RatedTitle, len(titles))
	for _, rt := range titles {
		byTconst[rt.Tconst] = rt
	}
	require.Contains(t, byTconst, "tt0111161")
	assert.Equal(t, "The Shawshank Redemption", byTconst["tt0111161"].PrimaryTitle)
	assert.Equal(t, 2800000, byTconst["tt0111161"].NumVotes)
	require.Contains(t, byTconst, "tt0068646")
}

func TestRatingAllIDs(t *testing.T) {
	db := testutil.DB(t)
	repos := repository.NewRepositories(db)

	require.NoError(t, db.Create(&model.Movie{
		Tconst: "tt0111161", TitleType: "movie",
		PrimaryTitle: "The Shawshank Redemption", OriginalTitle: "The Shawshank Redemption",
	}).Error)
	require.NoError(t, db.Create(&model.Rating{MovieID: "tt0111161", AverageRating: floatPtr(9.3), NumVotes: intPtr(100)}).Error)

	ids, err := repos.Rating.AllIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	_, ok := ids["tt0111161"]
	assert.True(t, ok)
}
