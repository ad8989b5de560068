package model

import (
	"encoding/json"
	"strings"
)

// Principal.Category 取值（来自 title.principals.tsv 的 category 列）
const (
	CategoryActor    = "actor"
	CategoryDirector = "director"
)

// Person 影人信息，对应 name.basics.tsv
type Person struct {
	Nconst            string `json:"nconst" db:"nconst" gorm:"primaryKey;size:20"`
	PrimaryName       string `json:"primary_name" db:"primary_name" gorm:"size:255;index"`
	BirthYear         *int   `json:"birth_year" db:"birth_year"`
	DeathYear         *int   `json:"death_year" db:"death_year"`
	PrimaryProfession string `json:"primary_profession" db:"primary_profession" gorm:"size:255"` // 职业，逗号分隔
}

// GetProfessions 获取职业列表
func (p *Person) GetProfessions() []string {
	return splitList(p.PrimaryProfession)
}

// Movie 影片信息，对应 title.basics.tsv
type Movie struct {
	Tconst         string `json:"tconst" db:"tconst" gorm:"primaryKey;size:20"`
	TitleType      string `json:"title_type" db:"title_type" gorm:"size:50"` // movie/short/tvSeries 等
	PrimaryTitle   string `json:"primary_title" db:"primary_title" gorm:"size:500"`
	OriginalTitle  string `json:"original_title" db:"original_title" gorm:"size:500"`
	IsAdult        bool   `json:"is_adult" db:"is_adult"`
	StartYear      *int   `json:"start_year" db:"start_year"`
	EndYear        *int   `json:"end_year" db:"end_year"` // 剧集完结年份，电影为空
	RuntimeMinutes *int   `json:"runtime_minutes" db:"runtime_minutes"`
	Genres         string `json:"genres" db:"genres" gorm:"size:255"` // 类型，逗号分隔

	Rating *Rating `json:"rating,omitempty" gorm:"foreignKey:MovieID;references:Tconst;constraint:OnDelete:CASCADE"`
}

// GetGenres 获取类型列表
func (m *Movie) GetGenres() []string {
	return splitList(m.Genres)
}

// DisplayTitle 展示标题：原始标题与主标题不同时带上原名
func (m *Movie) DisplayTitle() string {
	if m.OriginalTitle != "" && m.OriginalTitle != m.PrimaryTitle {
		return m.PrimaryTitle + " (" + m.OriginalTitle + ")"
	}
	return m.PrimaryTitle
}

// Rating 影片评分，对应 title.ratings.tsv，与 Movie 一对一
type Rating struct {
	MovieID       string   `json:"movie_id" db:"movie_id" gorm:"primaryKey;size:20"`
	AverageRating *float64 `json:"average_rating" db:"average_rating"` // 0~10 加权平均分
	NumVotes      *int     `json:"num_votes" db:"num_votes"`
}

// Principal 影片演职人员，对应 title.principals.tsv
type Principal struct {
	ID         uint   `json:"id" db:"id" gorm:"primaryKey"`
	MovieID    string `json:"movie_id" db:"movie_id" gorm:"size:20;uniqueIndex:idx_principals_credit"`
	PersonID   string `json:"person_id" db:"person_id" gorm:"size:20;index;uniqueIndex:idx_principals_credit"`
	Ordering   int    `json:"ordering" db:"ordering" gorm:"uniqueIndex:idx_principals_credit"` // 同一影片内的排位，越小越靠前
	Category   string `json:"category" db:"category" gorm:"size:100;uniqueIndex:idx_principals_credit"`
	Job        string `json:"job" db:"job" gorm:"size:255"`
	Characters string `json:"characters" db:"characters" gorm:"size:1000"` // 角色名，JSON 数组原文

	Person *Person `json:"person,omitempty" gorm:"foreignKey:PersonID;references:Nconst;constraint:OnDelete:CASCADE"`
	Movie  *Movie  `json:"-" gorm:"foreignKey:MovieID;references:Tconst;constraint:OnDelete:CASCADE"`
}

// GetCharacters 获取角色名列表，原始数据为 JSON 数组文本（如 ["Batman"]）
func (p *Principal) GetCharacters() []string {
	if p.Characters == "" {
		return nil
	}
	var chars []string
	if err := json.Unmarshal([]byte(p.Characters), &chars); err != nil {
		return nil
	}
	return chars
}

// splitList 拆分逗号分隔的列表字段
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			result = append(result, v)
		}
	}
	return result
}
