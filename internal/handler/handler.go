package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/cinedb/internal/config"
	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/service"
	"github.com/user/cinedb/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos         *repository.Repositories
	Config        *config.Config
	SearchService *service.SearchService
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	return &Handler{
		Repos:         repos,
		Config:        cfg,
		SearchService: service.NewSearchService(repos.Movie, repos.Principal),
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
	}

	for k, v := range data {
		res[k] = v
	}

	return res
}

// siteStats 首页展示的库存统计
type siteStats struct {
	Movies     int64
	People     int64
	Ratings    int64
	Principals int64
}

// stats 统计数据查一次缓存十分钟, 数据只在导入时变化
func (h *Handler) stats() siteStats {
	if cached, ok := utils.CacheGet("site:stats"); ok {
		return cached.(siteStats)
	}

	var s siteStats
	s.Movies, _ = h.Repos.Movie.Count()
	s.People, _ = h.Repos.Person.Count()
	s.Ratings, _ = h.Repos.Rating.Count()
	s.Principals, _ = h.Repos.Principal.Count()

	utils.CacheSet("site:stats", s, 10*time.Minute)
	return s
}

// ==================== 公开页面 ====================

// Home 首页
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title": h.Config.SiteName + " - 影片检索",
		"Stats": h.stats(),
	}))
}

// Search 搜索结果页
func (h *Handler) Search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	results, err := h.SearchService.Search(c.Request.Context(), keyword)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "search.html", h.RenderData(c, gin.H{
			"Title":   "搜索出错 - " + h.Config.SiteName,
			"Keyword": keyword,
			"Error":   "搜索暂时不可用, 请稍后再试",
		}))
		return
	}

	c.HTML(http.StatusOK, "search.html", h.RenderData(c, gin.H{
		"Title":   keyword + " - 搜索结果 - " + h.Config.SiteName,
		"Keyword": keyword,
		"Results": results,
	}))
}

// Movie 影片详情页
func (h *Handler) Movie(c *gin.Context) {
	tconst := c.Param("id")

	detail, err := h.SearchService.Detail(c.Request.Context(), tconst)
	if err != nil || detail == nil {
		c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
			"Title": "影片未找到 - " + h.Config.SiteName,
		}))
		return
	}

	title := detail.Movie.PrimaryTitle
	if detail.Movie.StartYear != nil {
		title = fmt.Sprintf("%s (%d)", title, *detail.Movie.StartYear)
	}

	c.HTML(http.StatusOK, "movie.html", h.RenderData(c, gin.H{
		"Title":     title + " - " + h.Config.SiteName,
		"Movie":     detail.Movie,
		"Rating":    detail.Rating,
		"Directors": detail.Directors,
		"Actors":    detail.Actors,
	}))
}

// About 关于页面, 数据来源与使用说明
func (h *Handler) About(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", h.RenderData(c, gin.H{
		"Title": "关于 - " + h.Config.SiteName,
	}))
}

// NotFound 兜底 404 页面
func (h *Handler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "页面不存在 - " + h.Config.SiteName,
	}))
}
