package repository

import (
	"errors"

	"github.com/user/cinedb/internal/model"
	"gorm.io/gorm"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// FindByNconst 根据 IMDb 编号查找影人
func (r *PersonRepository) FindByNconst(nconst string) (*model.Person, error) {
	var person model.Person
	err := r.db.Where("nconst = ?", nconst).First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// AllIDs 全部影人编号集合，导入时做去重与外键校验
func (r *PersonRepository) AllIDs() (map[string]struct{}, error) {
	var ids []string
	if err := r.db.Model(&model.Person{}).Pluck("nconst", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Count 影人总数
func (r *PersonRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Person{}).Count(&count).Error
	return count, err
}
