package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cinedb/internal/config"
	"github.com/user/cinedb/internal/handler"
	"github.com/user/cinedb/internal/model"
	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/router"
	"github.com/user/cinedb/internal/testutil"
	"github.com/user/cinedb/internal/utils"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// newTestRouter 建一个接 sqlite 测试库的完整路由
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	utils.InitCache()
	handler.RegisterValidators()

	db := testutil.DB(t)
	repos := repository.NewRepositories(db)

	require.NoError(t, db.Create(&model.Movie{
		Tconst:         "tt0468569",
		TitleType:      "movie",
		PrimaryTitle:   "The Dark Knight",
		OriginalTitle:  "The Dark Knight",
		StartYear:      intPtr(2008),
		RuntimeMinutes: intPtr(152),
		Genres:         "Action,Crime,Drama",
	}).Error)
	require.NoError(t, db.Create(&model.Rating{
		MovieID: "tt0468569", AverageRating: floatPtr(9.0), NumVotes: intPtr(2800000),
	}).Error)
	require.NoError(t, db.Create(&model.Person{
		Nconst: "nm0000288", PrimaryName: "Christian Bale",
	}).Error)
	require.NoError(t, db.Create(&model.Principal{
		MovieID: "tt0468569", PersonID: "nm0000288", Ordering: 1,
		Category: model.CategoryActor, Characters: `["Bruce Wayne"]`,
	}).Error)

	cfg := &config.Config{Env: "test", Port: "0", SiteName: "CineDB", SiteUrl: "http://localhost"}
	h := handler.NewHandler(repos, cfg)

	r := gin.New()
	router.RegisterRoutes(r, h)
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body utils.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w, _ := doGet(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestApiSearch(t *testing.T) {
	r := newTestRouter(t)

	w, body := doGet(t, r, "/api/search?q=dark")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)

	items, ok := body.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)

	first, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "tt0468569", first["tconst"])
	assert.Equal(t, "The Dark Knight", first["primary_title"])
	assert.InDelta(t, 9.0, first["average_rating"], 0.01)
}

func TestApiSearchMissingKeyword(t *testing.T) {
	r := newTestRouter(t)

	w, body := doGet(t, r, "/api/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
}

func TestApiMovie(t *testing.T) {
	r := newTestRouter(t)

	w, body := doGet(t, r, "/api/movies/tt0468569")
	assert.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)

	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)

	movie, ok := data["movie"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "The Dark Knight", movie["primary_title"])

	actors, ok := data["actors"].([]interface{})
	require.True(t, ok)
	require.Len(t, actors, 1)
	actor := actors[0].(map[string]interface{})
	assert.Equal(t, "Christian Bale", actor["name"])
	assert.Equal(t, []interface{}{"Bruce Wayne"}, actor["characters"])
}

func TestApiMovieNotFound(t *testing.T) {
	r := newTestRouter(t)

	w, body := doGet(t, r, "/api/movies/tt9999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.Success)
}

func TestApiMovieBadID(t *testing.T) {
	r := newTestRouter(t)

	// 编号必须是 tt/nm 加至少七位数字
	for _, id := range []string{"abc123", "tt123", "xx0468569"} {
		w, body := doGet(t, r, "/api/movies/"+id)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.False(t, body.Success, id)
	}
}
