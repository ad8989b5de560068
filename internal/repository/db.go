package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/cinedb/internal/model"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 ORM 失败: %w", err)
	}

	return db, nil
}

// AutoMigrate 同步表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Person{},
		&model.Movie{},
		&model.Rating{},
		&model.Principal{},
	)
}

// Repositories 仓库集合
type Repositories struct {
	DB        *gorm.DB
	Movie     *MovieRepository
	Person    *PersonRepository
	Rating    *RatingRepository
	Principal *PrincipalRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:        db,
		Movie:     NewMovieRepository(db),
		Person:    NewPersonRepository(db),
		Rating:    NewRatingRepository(db),
		Principal: NewPrincipalRepository(db),
	}
}

// TruncateAll 清空全部数据表，重新导入前使用
func (r *Repositories) TruncateAll() error {
	if r.DB.Dialector.Name() == "postgres" {
		return r.DB.Exec("TRUNCATE TABLE principals, ratings, movies, people RESTART IDENTITY CASCADE").Error
	}

	// 其他数据库按外键依赖逆序逐表删除
	for _, m := range []interface{}{&model.Principal{}, &model.Rating{}, &model.Movie{}, &model.Person{}} {
		if err := r.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("清空数据表失败: %w", err)
		}
	}
	return nil
}
