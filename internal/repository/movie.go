package repository

import (
	"errors"
	"strings"

	"github.com/user/cinedb/internal/model"
	"gorm.io/gorm"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// SearchTitles 按关键词搜索影片，匹配主标题或原始标题的子串，不区分大小写
func (r *MovieRepository) SearchTitles(keyword string, limit int) ([]model.Movie, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"

	var movies []model.Movie
	err := r.db.
		Where("LOWER(primary_title) LIKE ? ESCAPE '\\' OR LOWER(original_title) LIKE ? ESCAPE '\\'",
			pattern, pattern).
		Limit(limit).
		Preload("Rating").
		Find(&movies).Error
	return movies, err
}

// FindByTconst 根据 IMDb 编号查找影片，带评分
func (r *MovieRepository) FindByTconst(tconst string) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.Preload("Rating").Where("tconst = ?", tconst).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// AllIDs 全部影片编号集合，导入时做去重与外键校验
func (r *MovieRepository) AllIDs() (map[string]struct{}, error) {
	var ids []string
	if err := r.db.Model(&model.Movie{}).Pluck("tconst", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Count 影片总数
func (r *MovieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Count(&count).Error
	return count, err
}

// escapeLike 转义 LIKE 模式里的通配符
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
