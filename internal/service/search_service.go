package service

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/cinedb/internal/model"
	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/utils"
)

// 搜索行为参数
const (
	maxSearchResults = 50        // 单次搜索返回上限
	searchCacheSize  = 1000      // 搜索词缓存条数
	searchCacheTTL   = time.Hour // 搜索结果有效期
	detailCacheTTL   = time.Hour // 详情有效期
)

// SearchService 搜索与详情服务。
// 数据导入完成后只读, 结果可以放心缓存: 搜索词走 LRU,
// 详情走全局缓存, singleflight 把并发的同词未命中合并成一次查库。
type SearchService struct {
	movieRepo     *repository.MovieRepository
	principalRepo *repository.PrincipalRepository
	searchCache   *utils.SearchCache[[]model.MovieSummary]
	sf            singleflight.Group
}

// NewSearchService 创建搜索服务
func NewSearchService(movieRepo *repository.MovieRepository, principalRepo *repository.PrincipalRepository) *SearchService {
	return &SearchService{
		movieRepo:     movieRepo,
		principalRepo: principalRepo,
		searchCache:   utils.NewSearchCache[[]model.MovieSummary](searchCacheSize, searchCacheTTL),
	}
}

// Search 标题子串搜索
// 1. 先查缓存
// 2. 未命中时用 singleflight 合并同词请求, 查库后回填缓存
func (s *SearchService) Search(ctx context.Context, keyword string) ([]model.MovieSummary, error) {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if key == "" {
		return []model.MovieSummary{}, nil
	}

	if cached, ok := s.searchCache.Get(key); ok {
		return cached, nil
	}

	val, err, _ := s.sf.Do("search:"+key, func() (interface{}, error) {
		movies, err := s.movieRepo.SearchTitles(key, maxSearchResults)
		if err != nil {
			return nil, err
		}

		summaries := make([]model.MovieSummary, 0, len(movies))
		for i := range movies {
			summaries = append(summaries, model.NewMovieSummary(&movies[i]))
		}

		s.searchCache.Set(key, summaries)
		return summaries, nil
	})
	if err != nil {
		log.Printf("[SearchService] 搜索失败: %s: %v", key, err)
		return nil, err
	}
	return val.([]model.MovieSummary), nil
}

// Detail 影片详情, 演职名单只保留导演和主要演员
// 1. 先查缓存
// 2. 未命中时查库拼装并回填缓存, 影片不存在返回 nil
func (s *SearchService) Detail(ctx context.Context, tconst string) (*model.MovieDetail, error) {
	cacheKey := "movie:" + tconst
	if cached, ok := utils.CacheGet(cacheKey); ok {
		return cached.(*model.MovieDetail), nil
	}

	val, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		movie, err := s.movieRepo.FindByTconst(tconst)
		if err != nil {
			return nil, err
		}
		if movie == nil {
			return nil, nil
		}

		principals, err := s.principalRepo.CreditsForMovie(tconst)
		if err != nil {
			return nil, err
		}

		detail := &model.MovieDetail{
			Movie:  movie,
			Rating: movie.Rating,
		}
		for i := range principals {
			credit := model.NewCredit(&principals[i])
			switch principals[i].Category {
			case model.CategoryDirector:
				detail.Directors = append(detail.Directors, credit)
			case model.CategoryActor:
				detail.Actors = append(detail.Actors, credit)
			}
		}

		utils.CacheSet(cacheKey, detail, detailCacheTTL)
		return detail, nil
	})
	if err != nil {
		log.Printf("[SearchService] 获取详情失败: %s: %v", tconst, err)
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	return val.(*model.MovieDetail), nil
}
