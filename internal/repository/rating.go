package repository

import (
	"github.com/user/cinedb/internal/model"
	"gorm.io/gorm"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// AllIDs 已有评分的影片编号集合，导入时做去重
func (r *RatingRepository) AllIDs() (map[string]struct{}, error) {
	var ids []string
	if err := r.db.Model(&model.Rating{}).Pluck("movie_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// RatedTitles 全部有投票数的影片标题与票数，按票数加权生成查询集用
func (r *RatingRepository) RatedTitles() ([]model.RatedTitle, error) {
	var titles []model.RatedTitle
	err := r.db.Table("ratings").
		Select("ratings.movie_id AS tconst, movies.primary_title, ratings.num_votes").
		Joins("JOIN movies ON movies.tconst = ratings.movie_id").
		Where("ratings.num_votes IS NOT NULL AND ratings.num_votes > 0").
		Scan(&titles).Error
	return titles, err
}

// Count 评分总数
func (r *RatingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Rating{}).Count(&count).Error
	return count, err
}
