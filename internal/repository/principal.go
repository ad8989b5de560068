package repository

import (
	"github.com/user/cinedb/internal/model"
	"gorm.io/gorm"
)

type PrincipalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

// CreditsForMovie 影片的导演与主要演员，按排位升序
func (r *PrincipalRepository) CreditsForMovie(tconst string) ([]model.Principal, error) {
	var principals []model.Principal
	err := r.db.Preload("Person").
		Where("movie_id = ? AND category IN ?", tconst,
			[]string{model.CategoryActor, model.CategoryDirector}).
		Order("ordering ASC").
		Find(&principals).Error
	return principals, err
}

// Count 演职记录总数
func (r *PrincipalRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Principal{}).Count(&count).Error
	return count, err
}
