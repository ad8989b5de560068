package service

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/cinedb/internal/model"
	"github.com/user/cinedb/internal/repository"
)

// IMDb 数据集的四个标准文件名，同名加 .gz 后缀的压缩文件也能识别
const (
	NameBasicsFile      = "name.basics.tsv"
	TitleBasicsFile     = "title.basics.tsv"
	TitleRatingsFile    = "title.ratings.tsv"
	TitlePrincipalsFile = "title.principals.tsv"
)

// 每批写入行数。Postgres 单条语句最多 65535 个绑定参数，
// 批大小乘以列数必须控制在这个上限之内。
const (
	personBatchSize    = 5000
	movieBatchSize     = 5000
	ratingBatchSize    = 10000
	principalBatchSize = 8000
)

// 进度日志间隔行数
const progressInterval = 500000

// ImportOptions 导入行为开关
type ImportOptions struct {
	Reset  bool // 导入前清空数据表
	NoCopy bool // 禁用 Postgres COPY 快速通道
}

// ImportStats 单个文件的导入统计
type ImportStats struct {
	File      string
	Processed int
	Loaded    int
	Skipped   int
	Elapsed   time.Duration
}

// Importer IMDb 数据集批量导入。
// 主键和外键集合先整体取进内存做去重与校验，配合 ON CONFLICT DO NOTHING，
// 重复执行导入不会产生重复数据。
type Importer struct {
	db    *gorm.DB
	repos *repository.Repositories
	opts  ImportOptions
}

// NewImporter 创建导入器
func NewImporter(db *gorm.DB, repos *repository.Repositories, opts ImportOptions) *Importer {
	return &Importer{db: db, repos: repos, opts: opts}
}

// Run 按外键依赖顺序导入目录下的四个数据文件：
// 影人、影片先行，评分和演职记录依赖它们
func (im *Importer) Run(dir string) ([]ImportStats, error) {
	if im.opts.Reset {
		log.Println("[Importer] 清空现有数据...")
		if err := im.repos.TruncateAll(); err != nil {
			return nil, fmt.Errorf("清空数据失败: %w", err)
		}
	}

	steps := []struct {
		name string
		fn   func(string) (ImportStats, error)
	}{
		{NameBasicsFile, im.loadPersons},
		{TitleBasicsFile, im.loadMovies},
		{TitleRatingsFile, im.loadRatings},
		{TitlePrincipalsFile, im.loadPrincipals},
	}

	var all []ImportStats
	for _, step := range steps {
		stats, err := step.fn(dir)
		if err != nil {
			return all, fmt.Errorf("导入 %s 失败: %w", step.name, err)
		}
		all = append(all, stats)
		log.Printf("[Importer] %s 完成: 读取 %d 行, 写入 %d, 跳过 %d, 耗时 %s",
			stats.File, stats.Processed, stats.Loaded, stats.Skipped,
			stats.Elapsed.Round(time.Millisecond))
	}
	return all, nil
}

// loadPersons 导入 name.basics.tsv
func (im *Importer) loadPersons(dir string) (ImportStats, error) {
	stats := ImportStats{File: NameBasicsFile}
	start := time.Now()

	r, err := openTSV(dir, NameBasicsFile)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	existing, err := im.repos.Person.AllIDs()
	if err != nil {
		return stats, err
	}
	log.Printf("[Importer] 开始导入影人, 库中已有 %d 条", len(existing))

	var cw *copyWriter
	if im.copyAllowed(len(existing) == 0) {
		cw, err = newCopyWriter(im.db, "people",
			"nconst", "primary_name", "birth_year", "death_year", "primary_profession")
		if err != nil {
			return stats, err
		}
		log.Println("[Importer] 影人表为空, 使用 COPY 快速通道")
	}

	batch := make([]model.Person, 0, personBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error; err != nil {
			return fmt.Errorf("写入影人批次失败: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		fields, ok := r.Next()
		if !ok {
			break
		}
		stats.Processed++

		p := model.Person{
			Nconst:            r.Field(fields, "nconst"),
			PrimaryName:       r.Field(fields, "primaryName"),
			BirthYear:         parseIntField(r.Field(fields, "birthYear")),
			DeathYear:         parseIntField(r.Field(fields, "deathYear")),
			PrimaryProfession: r.Field(fields, "primaryProfession"),
		}
		if p.Nconst == "" {
			stats.Skipped++
			continue
		}
		if _, dup := existing[p.Nconst]; dup {
			stats.Skipped++
			continue
		}
		existing[p.Nconst] = struct{}{}

		if cw != nil {
			if err := cw.Add(p.Nconst, p.PrimaryName, p.BirthYear, p.DeathYear, p.PrimaryProfession); err != nil {
				cw.Abort()
				return stats, fmt.Errorf("COPY 写入影人失败 (第 %d 行): %w", r.Line(), err)
			}
		} else {
			batch = append(batch, p)
			if len(batch) >= personBatchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		stats.Loaded++

		if stats.Processed%progressInterval == 0 {
			log.Printf("[Importer] 影人已处理 %d 行", stats.Processed)
		}
	}
	if err := r.Err(); err != nil {
		if cw != nil {
			cw.Abort()
		}
		return stats, fmt.Errorf("读取数据文件失败: %w", err)
	}

	if cw != nil {
		err = cw.Close()
	} else {
		err = flush()
	}
	if err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// loadMovies 导入 title.basics.tsv
func (im *Importer) loadMovies(dir string) (ImportStats, error) {
	stats := ImportStats{File: TitleBasicsFile}
	start := time.Now()

	r, err := openTSV(dir, TitleBasicsFile)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	existing, err := im.repos.Movie.AllIDs()
	if err != nil {
		return stats, err
	}
	log.Printf("[Importer] 开始导入影片, 库中已有 %d 条", len(existing))

	var cw *copyWriter
	if im.copyAllowed(len(existing) == 0) {
		cw, err = newCopyWriter(im.db, "movies",
			"tconst", "title_type", "primary_title", "original_title",
			"is_adult", "start_year", "end_year", "runtime_minutes", "genres")
		if err != nil {
			return stats, err
		}
		log.Println("[Importer] 影片表为空, 使用 COPY 快速通道")
	}

	batch := make([]model.Movie, 0, movieBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error; err != nil {
			return fmt.Errorf("写入影片批次失败: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		fields, ok := r.Next()
		if !ok {
			break
		}
		stats.Processed++

		m := model.Movie{
			Tconst:         r.Field(fields, "tconst"),
			TitleType:      r.Field(fields, "titleType"),
			PrimaryTitle:   r.Field(fields, "primaryTitle"),
			OriginalTitle:  r.Field(fields, "originalTitle"),
			IsAdult:        r.Field(fields, "isAdult") == "1",
			StartYear:      parseIntField(r.Field(fields, "startYear")),
			EndYear:        parseIntField(r.Field(fields, "endYear")),
			RuntimeMinutes: parseIntField(r.Field(fields, "runtimeMinutes")),
			Genres:         r.Field(fields, "genres"),
		}
		if m.Tconst == "" {
			stats.Skipped++
			continue
		}
		if _, dup := existing[m.Tconst]; dup {
			stats.Skipped++
			continue
		}
		existing[m.Tconst] = struct{}{}

		if cw != nil {
			if err := cw.Add(m.Tconst, m.TitleType, m.PrimaryTitle, m.OriginalTitle,
				m.IsAdult, m.StartYear, m.EndYear, m.RuntimeMinutes, m.Genres); err != nil {
				cw.Abort()
				return stats, fmt.Errorf("COPY 写入影片失败 (第 %d 行): %w", r.Line(), err)
			}
		} else {
			batch = append(batch, m)
			if len(batch) >= movieBatchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		stats.Loaded++

		if stats.Processed%progressInterval == 0 {
			log.Printf("[Importer] 影片已处理 %d 行", stats.Processed)
		}
	}
	if err := r.Err(); err != nil {
		if cw != nil {
			cw.Abort()
		}
		return stats, fmt.Errorf("读取数据文件失败: %w", err)
	}

	if cw != nil {
		err = cw.Close()
	} else {
		err = flush()
	}
	if err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// loadRatings 导入 title.ratings.tsv，影片不存在的评分直接跳过
func (im *Importer) loadRatings(dir string) (ImportStats, error) {
	stats := ImportStats{File: TitleRatingsFile}
	start := time.Now()

	r, err := openTSV(dir, TitleRatingsFile)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	movieIDs, err := im.repos.Movie.AllIDs()
	if err != nil {
		return stats, err
	}
	existing, err := im.repos.Rating.AllIDs()
	if err != nil {
		return stats, err
	}
	log.Printf("[Importer] 开始导入评分, 库中已有 %d 条", len(existing))

	var cw *copyWriter
	if im.copyAllowed(len(existing) == 0) {
		cw, err = newCopyWriter(im.db, "ratings", "movie_id", "average_rating", "num_votes")
		if err != nil {
			return stats, err
		}
		log.Println("[Importer] 评分表为空, 使用 COPY 快速通道")
	}

	batch := make([]model.Rating, 0, ratingBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error; err != nil {
			return fmt.Errorf("写入评分批次失败: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		fields, ok := r.Next()
		if !ok {
			break
		}
		stats.Processed++

		rt := model.Rating{
			MovieID:       r.Field(fields, "tconst"),
			AverageRating: parseFloatField(r.Field(fields, "averageRating")),
			NumVotes:      parseIntField(r.Field(fields, "numVotes")),
		}
		if rt.MovieID == "" {
			stats.Skipped++
			continue
		}
		if _, ok := movieIDs[rt.MovieID]; !ok {
			// 影片不在库里, 外键挂不上
			stats.Skipped++
			continue
		}
		if _, dup := existing[rt.MovieID]; dup {
			stats.Skipped++
			continue
		}
		existing[rt.MovieID] = struct{}{}

		if cw != nil {
			if err := cw.Add(rt.MovieID, rt.AverageRating, rt.NumVotes); err != nil {
				cw.Abort()
				return stats, fmt.Errorf("COPY 写入评分失败 (第 %d 行): %w", r.Line(), err)
			}
		} else {
			batch = append(batch, rt)
			if len(batch) >= ratingBatchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		stats.Loaded++

		if stats.Processed%progressInterval == 0 {
			log.Printf("[Importer] 评分已处理 %d 行", stats.Processed)
		}
	}
	if err := r.Err(); err != nil {
		if cw != nil {
			cw.Abort()
		}
		return stats, fmt.Errorf("读取数据文件失败: %w", err)
	}

	if cw != nil {
		err = cw.Close()
	} else {
		err = flush()
	}
	if err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// loadPrincipals 导入 title.principals.tsv。
// 影片或影人不在库里、排位或类别缺失的记录都跳过。
// 数据按影片分块排列, 块内用一个小集合挡住重复的演职记录。
func (im *Importer) loadPrincipals(dir string) (ImportStats, error) {
	stats := ImportStats{File: TitlePrincipalsFile}
	start := time.Now()

	r, err := openTSV(dir, TitlePrincipalsFile)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	movieIDs, err := im.repos.Movie.AllIDs()
	if err != nil {
		return stats, err
	}
	personIDs, err := im.repos.Person.AllIDs()
	if err != nil {
		return stats, err
	}
	count, err := im.repos.Principal.Count()
	if err != nil {
		return stats, err
	}
	log.Printf("[Importer] 开始导入演职记录, 库中已有 %d 条", count)

	var cw *copyWriter
	if im.copyAllowed(count == 0) {
		cw, err = newCopyWriter(im.db, "principals",
			"movie_id", "person_id", "ordering", "category", "job", "characters")
		if err != nil {
			return stats, err
		}
		log.Println("[Importer] 演职表为空, 使用 COPY 快速通道")
	}

	batch := make([]model.Principal, 0, principalBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error; err != nil {
			return fmt.Errorf("写入演职批次失败: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	curMovie := ""
	seen := make(map[string]struct{})

	for {
		fields, ok := r.Next()
		if !ok {
			break
		}
		stats.Processed++

		movieID := r.Field(fields, "tconst")
		personID := r.Field(fields, "nconst")
		ordering := parseIntField(r.Field(fields, "ordering"))
		category := r.Field(fields, "category")

		if movieID == "" || personID == "" || ordering == nil || category == "" {
			stats.Skipped++
			continue
		}
		if _, ok := movieIDs[movieID]; !ok {
			stats.Skipped++
			continue
		}
		if _, ok := personIDs[personID]; !ok {
			stats.Skipped++
			continue
		}

		if movieID != curMovie {
			curMovie = movieID
			clear(seen)
		}
		key := fmt.Sprintf("%s|%d|%s", personID, *ordering, category)
		if _, dup := seen[key]; dup {
			stats.Skipped++
			continue
		}
		seen[key] = struct{}{}

		p := model.Principal{
			MovieID:    movieID,
			PersonID:   personID,
			Ordering:   *ordering,
			Category:   category,
			Job:        r.Field(fields, "job"),
			Characters: r.Field(fields, "characters"),
		}

		if cw != nil {
			if err := cw.Add(p.MovieID, p.PersonID, p.Ordering, p.Category, p.Job, p.Characters); err != nil {
				cw.Abort()
				return stats, fmt.Errorf("COPY 写入演职记录失败 (第 %d 行): %w", r.Line(), err)
			}
		} else {
			batch = append(batch, p)
			if len(batch) >= principalBatchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		stats.Loaded++

		if stats.Processed%progressInterval == 0 {
			log.Printf("[Importer] 演职记录已处理 %d 行", stats.Processed)
		}
	}
	if err := r.Err(); err != nil {
		if cw != nil {
			cw.Abort()
		}
		return stats, fmt.Errorf("读取数据文件失败: %w", err)
	}

	if cw != nil {
		err = cw.Close()
	} else {
		err = flush()
	}
	if err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// copyAllowed COPY 快速通道只在 Postgres 且目标表为空时可用。
// 表里已有数据时 COPY 撞上主键会整体失败, 退回 ON CONFLICT 批量插入。
func (im *Importer) copyAllowed(tableEmpty bool) bool {
	return !im.opts.NoCopy && tableEmpty && im.db.Dialector.Name() == "postgres"
}

// copyWriter 通过 COPY 协议向单个表流式写入, 整个文件一个事务
type copyWriter struct {
	tx   *sql.Tx
	stmt *sql.Stmt
}

func newCopyWriter(db *gorm.DB, table string, cols ...string) (*copyWriter, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	tx, err := sqlDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("开启 COPY 事务失败: %w", err)
	}
	stmt, err := tx.Prepare(pq.CopyIn(table, cols...))
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("准备 COPY 语句失败: %w", err)
	}
	return &copyWriter{tx: tx, stmt: stmt}, nil
}

// Add 追加一行
func (w *copyWriter) Add(args ...interface{}) error {
	_, err := w.stmt.Exec(args...)
	return err
}

// Close 刷出缓冲并提交事务
func (w *copyWriter) Close() error {
	if _, err := w.stmt.Exec(); err != nil {
		w.tx.Rollback()
		return fmt.Errorf("COPY 刷新失败: %w", err)
	}
	if err := w.stmt.Close(); err != nil {
		w.tx.Rollback()
		return fmt.Errorf("COPY 关闭失败: %w", err)
	}
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("COPY 提交失败: %w", err)
	}
	return nil
}

// Abort 出错时回滚, 不再关心后续错误
func (w *copyWriter) Abort() {
	w.stmt.Close()
	w.tx.Rollback()
}
