package model

// MovieSummary 搜索结果条目
type MovieSummary struct {
	Tconst         string   `json:"tconst"`
	TitleType      string   `json:"title_type"`
	PrimaryTitle   string   `json:"primary_title"`
	OriginalTitle  string   `json:"original_title,omitempty"`
	StartYear      *int     `json:"start_year"`
	RuntimeMinutes *int     `json:"runtime_minutes"`
	Genres         []string `json:"genres"`
	AverageRating  *float64 `json:"average_rating,omitempty"`
	NumVotes       *int     `json:"num_votes,omitempty"`
}

// NewMovieSummary 由影片记录构造搜索结果条目
func NewMovieSummary(m *Movie) MovieSummary {
	s := MovieSummary{
		Tconst:         m.Tconst,
		TitleType:      m.TitleType,
		PrimaryTitle:   m.PrimaryTitle,
		RuntimeMinutes: m.RuntimeMinutes,
		StartYear:      m.StartYear,
		Genres:         m.GetGenres(),
	}
	if m.OriginalTitle != m.PrimaryTitle {
		s.OriginalTitle = m.OriginalTitle
	}
	if m.Rating != nil {
		s.AverageRating = m.Rating.AverageRating
		s.NumVotes = m.Rating.NumVotes
	}
	return s
}

// Credit 详情页演职人员条目
type Credit struct {
	Nconst     string   `json:"nconst"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Ordering   int      `json:"ordering"`
	Job        string   `json:"job,omitempty"`
	Characters []string `json:"characters,omitempty"`
}

// NewCredit 由演职记录构造条目，Person 需已联表取出
func NewCredit(p *Principal) Credit {
	c := Credit{
		Nconst:     p.PersonID,
		Category:   p.Category,
		Ordering:   p.Ordering,
		Job:        p.Job,
		Characters: p.GetCharacters(),
	}
	if p.Person != nil {
		c.Name = p.Person.PrimaryName
	}
	return c
}

// MovieDetail 影片详情页数据
type MovieDetail struct {
	Movie     *Movie   `json:"movie"`
	Rating    *Rating  `json:"rating,omitempty"`
	Directors []Credit `json:"directors"`
	Actors    []Credit `json:"actors"`
}

// RatedTitle 有评分影片的标题与票数，生成查询集用
type RatedTitle struct {
	Tconst       string `json:"tconst" db:"tconst"`
	PrimaryTitle string `json:"primary_title" db:"primary_title"`
	NumVotes     int    `json:"num_votes" db:"num_votes"`
}
