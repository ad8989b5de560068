package service

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/user/cinedb/internal/model"
	"github.com/user/cinedb/internal/repository"
)

// QuerySetOptions 查询集生成参数
type QuerySetOptions struct {
	Count       int    // 搜索词条数
	Output      string // 搜索词输出文件
	TconstCount int    // 影片编号条数, 0 表示不生成
	TconstFile  string // 影片编号输出文件
	Seed        int64  // 随机种子, 0 用当前时间
}

// QuerySetGenerator 从库里的评分数据生成压测查询集。
// 标题按票数加权有放回采样, 票数越高出现频率越高, 模拟真实的热门度分布。
type QuerySetGenerator struct {
	repos *repository.Repositories
}

// NewQuerySetGenerator 创建生成器
func NewQuerySetGenerator(repos *repository.Repositories) *QuerySetGenerator {
	return &QuerySetGenerator{repos: repos}
}

// Generate 采样并写出查询集文件
func (g *QuerySetGenerator) Generate(opts QuerySetOptions) error {
	if opts.Count <= 0 {
		return errors.New("条数必须大于 0")
	}

	titles, err := g.repos.Rating.RatedTitles()
	if err != nil {
		return fmt.Errorf("读取评分数据失败: %w", err)
	}
	if len(titles) == 0 {
		return errors.New("库里没有带投票数的评分, 请先执行 import")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	sampler := newWeightedSampler(titles)

	log.Printf("[QuerySet] 候选影片 %d 部, 采样 %d 条搜索词", len(titles), opts.Count)

	queries := make([]string, opts.Count)
	for i := range queries {
		queries[i] = sampler.pick(rng).PrimaryTitle
	}
	if err := writeLines(opts.Output, queries); err != nil {
		return err
	}
	log.Printf("[QuerySet] 搜索词已写入 %s", opts.Output)

	if opts.TconstCount > 0 && opts.TconstFile != "" {
		tconsts := make([]string, opts.TconstCount)
		for i := range tconsts {
			tconsts[i] = sampler.pick(rng).Tconst
		}
		if err := writeLines(opts.TconstFile, tconsts); err != nil {
			return err
		}
		log.Printf("[QuerySet] 影片编号已写入 %s", opts.TconstFile)
	}

	return nil
}

// weightedSampler 前缀和加二分查找的带权有放回采样
type weightedSampler struct {
	titles []model.RatedTitle
	cum    []int64
	total  int64
}

func newWeightedSampler(titles []model.RatedTitle) *weightedSampler {
	cum := make([]int64, len(titles))
	var total int64
	for i, t := range titles {
		total += int64(t.NumVotes)
		cum[i] = total
	}
	return &weightedSampler{titles: titles, cum: cum, total: total}
}

func (s *weightedSampler) pick(rng *rand.Rand) model.RatedTitle {
	x := rng.Int63n(s.total)
	idx := sort.Search(len(s.cum), func(i int) bool { return s.cum[i] > x })
	return s.titles[idx]
}

// writeLines 一行一条写入文件
func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("写入输出文件失败: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return f.Close()
}
