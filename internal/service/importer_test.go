package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/user/cinedb/internal/model"
	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/testutil"
)

// writeDataset 构造一套带脏数据的小型数据集, 评分文件用 gzip 压缩
func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	testutil.WriteTSV(t, dir, NameBasicsFile,
		"nconst\tprimaryName\tbirthYear\tdeathYear\tprimaryProfession\tknownForTitles",
		"nm0000001\tNikola Tesla\t1856\t1943\tinventor,engineer\t\\N",
		"nm0000288\tChristian Bale\t1974\t\\N\tactor,producer\ttt0468569",
		"nm0634240\tChristopher Nolan\t1970\t\\N\tdirector,producer,writer\ttt0468569",
		"nm0001234\tGlitch Person\tabcd\t\\N\tactor\t\\N",
		"\\N\tGhost\t\\N\t\\N\t\\N\t\\N",
		"nm0000288\tChristian Bale\t1974\t\\N\tactor,producer\ttt0468569",
	)

	testutil.WriteTSV(t, dir, TitleBasicsFile,
		"tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres",
		"tt0468569\tmovie\tThe Dark Knight\tThe Dark Knight\t0\t2008\t\\N\t152\tAction,Crime,Drama",
		"tt1375666\tmovie\tInception\tInception\t0\t2010\t\\N\t148\tAction,Sci-Fi",
		"tt0041098\tmovie\tIl piccolo principe\tIl piccolo principe\t0\t1949\t\\N\t\\N\tDrama",
		"\\N\tmovie\tNameless\tNameless\t0\t2000\t\\N\t90\tDrama",
		"tt7777777\tmovie\tBad Runtime\tBad Runtime\t1\ttwenty\t\\N\tabc\t\\N",
	)

	testutil.WriteTSVGz(t, dir, TitleRatingsFile+".gz",
		"tconst\taverageRating\tnumVotes",
		"tt0468569\t9.0\t2900000",
		"tt1375666\t8.8\t2600000",
		"tt9999999\t7.5\t1000",
		"tt0041098\t\\N\t\\N",
	)

	testutil.WriteTSV(t, dir, TitlePrincipalsFile,
		"tconst\tordering\tnconst\tcategory\tjob\tcharacters",
		"tt0468569\t1\tnm0000288\tactor\t\\N\t[\"Bruce Wayne\",\"Batman\"]",
		"tt0468569\t1\tnm0000288\tactor\t\\N\t[\"Bruce Wayne\",\"Batman\"]",
		"tt0468569\t5\tnm0634240\tdirector\t\\N\t\\N",
		"tt0468569\t6\tnm0634240\twriter\twritten by\t\\N",
		"tt0468569\t\\N\tnm0000288\tactor\t\\N\t\\N",
		"tt0468569\t7\tnm0634240\t\\N\t\\N\t\\N",
		"tt1375666\t1\tnm0000288\tactor\t\\N\t[\"Dom Cobb\"]",
		"tt1375666\t2\tnm9999999\tactor\t\\N\t\\N",
		"tt9999999\t1\tnm0000288\tactor\t\\N\t\\N",
	)

	return dir
}

func newTestImporter(t *testing.T, opts ImportOptions) (*gorm.DB, *repository.Repositories, *Importer) {
	t.Helper()
	db := testutil.DB(t)
	repos := repository.NewRepositories(db)
	return db, repos, NewImporter(db, repos, opts)
}

func TestImportRun(t *testing.T) {
	dir := writeDataset(t)
	_, repos, im := newTestImporter(t, ImportOptions{})

	all, err := im.Run(dir)
	require.NoError(t, err)
	require.Len(t, all, 4)

	persons, movies, ratings, principals := all[0], all[1], all[2], all[3]

	// 影人: 哨兵主键与重复行被跳过
	assert.Equal(t, 6, persons.Processed)
	assert.Equal(t, 4, persons.Loaded)
	assert.Equal(t, 2, persons.Skipped)

	// 影片: 哨兵主键被跳过
	assert.Equal(t, 5, movies.Processed)
	assert.Equal(t, 4, movies.Loaded)
	assert.Equal(t, 1, movies.Skipped)

	// 评分: 不存在的影片被跳过
	assert.Equal(t, 4, ratings.Processed)
	assert.Equal(t, 3, ratings.Loaded)
	assert.Equal(t, 1, ratings.Skipped)

	// 演职: 重复、缺排位、缺类别、影人或影片不在库里的都被跳过
	assert.Equal(t, 9, principals.Processed)
	assert.Equal(t, 4, principals.Loaded)
	assert.Equal(t, 5, principals.Skipped)

	count, err := repos.Person.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	count, err = repos.Movie.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	count, err = repos.Rating.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	count, err = repos.Principal.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestImportFieldParsing(t *testing.T) {
	dir := writeDataset(t)
	_, repos, im := newTestImporter(t, ImportOptions{})

	_, err := im.Run(dir)
	require.NoError(t, err)

	tesla, err := repos.Person.FindByNconst("nm0000001")
	require.NoError(t, err)
	require.NotNil(t, tesla)
	assert.Equal(t, "Nikola Tesla", tesla.PrimaryName)
	require.NotNil(t, tesla.BirthYear)
	assert.Equal(t, 1856, *tesla.BirthYear)
	require.NotNil(t, tesla.DeathYear)
	assert.Equal(t, 1943, *tesla.DeathYear)
	assert.Equal(t, []string{"inventor", "engineer"}, tesla.GetProfessions())

	// 在世影人的 deathYear 是 \N, 落库为空
	bale, err := repos.Person.FindByNconst("nm0000288")
	require.NoError(t, err)
	require.NotNil(t, bale)
	assert.Nil(t, bale.DeathYear)

	// 非法数字按空值处理, 整行不丢
	glitch, err := repos.Person.FindByNconst("nm0001234")
	require.NoError(t, err)
	require.NotNil(t, glitch)
	assert.Nil(t, glitch.BirthYear)

	// 片长 \N 落库为空
	piccolo, err := repos.Movie.FindByTconst("tt0041098")
	require.NoError(t, err)
	require.NotNil(t, piccolo)
	assert.Nil(t, piccolo.RuntimeMinutes)
	require.NotNil(t, piccolo.StartYear)
	assert.Equal(t, 1949, *piccolo.StartYear)

	bad, err := repos.Movie.FindByTconst("tt7777777")
	require.NoError(t, err)
	require.NotNil(t, bad)
	assert.True(t, bad.IsAdult)
	assert.Nil(t, bad.StartYear)
	assert.Nil(t, bad.RuntimeMinutes)
	assert.Empty(t, bad.Genres)

	// 评分两个数值列都是 \N 时记录仍在, 值为空
	piccoloFull, err := repos.Movie.FindByTconst("tt0041098")
	require.NoError(t, err)
	require.NotNil(t, piccoloFull.Rating)
	assert.Nil(t, piccoloFull.Rating.AverageRating)
	assert.Nil(t, piccoloFull.Rating.NumVotes)
}

func TestImportRatingForeignKeys(t *testing.T) {
	dir := writeDataset(t)
	db, repos, im := newTestImporter(t, ImportOptions{})

	_, err := im.Run(dir)
	require.NoError(t, err)

	// 每条评分都能挂到影片上
	var orphans int64
	err = db.Table("ratings").
		Joins("LEFT JOIN movies ON movies.tconst = ratings.movie_id").
		Where("movies.tconst IS NULL").
		Count(&orphans).Error
	require.NoError(t, err)
	assert.Zero(t, orphans)

	ids, err := repos.Rating.AllIDs()
	require.NoError(t, err)
	assert.NotContains(t, ids, "tt9999999")
}

func TestImportIdempotent(t *testing.T) {
	dir := writeDataset(t)
	_, repos, im := newTestImporter(t, ImportOptions{})

	_, err := im.Run(dir)
	require.NoError(t, err)

	second, err := im.Run(dir)
	require.NoError(t, err)

	// 第二次导入不再写入影人/影片/评分
	assert.Zero(t, second[0].Loaded)
	assert.Zero(t, second[1].Loaded)
	assert.Zero(t, second[2].Loaded)

	for i, want := range []int64{4, 4, 3, 4} {
		var count int64
		var err error
		switch i {
		case 0:
			count, err = repos.Person.Count()
		case 1:
			count, err = repos.Movie.Count()
		case 2:
			count, err = repos.Rating.Count()
		case 3:
			count, err = repos.Principal.Count()
		}
		require.NoError(t, err)
		assert.EqualValues(t, want, count, "table %d", i)
	}
}

func TestImportReset(t *testing.T) {
	dir := writeDataset(t)
	db, repos, _ := newTestImporter(t, ImportOptions{})

	first := NewImporter(db, repos, ImportOptions{})
	_, err := first.Run(dir)
	require.NoError(t, err)

	// 库里混进一条数据集之外的影片
	require.NoError(t, db.Create(&model.Movie{
		Tconst: "tt0000099", TitleType: "movie",
		PrimaryTitle: "Leftover", OriginalTitle: "Leftover",
	}).Error)

	reset := NewImporter(db, repos, ImportOptions{Reset: true})
	_, err = reset.Run(dir)
	require.NoError(t, err)

	count, err := repos.Movie.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	leftover, err := repos.Movie.FindByTconst("tt0000099")
	require.NoError(t, err)
	assert.Nil(t, leftover)
}

func TestImportMissingFile(t *testing.T) {
	_, _, im := newTestImporter(t, ImportOptions{})

	_, err := im.Run(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), NameBasicsFile)
}
