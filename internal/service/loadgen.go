package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/cinedb/internal/utils"
)

// LoadGenOptions 压测参数
type LoadGenOptions struct {
	BaseURL    string
	Users      int           // 并发虚拟用户数
	Duration   time.Duration // 压测时长
	QueryFile  string        // 搜索词文件, 一行一条
	TconstFile string        // 影片编号文件, 可空
	Timeout    time.Duration // 单请求超时
	MinWait    time.Duration // 思考时间下限, 默认 1 秒
	MaxWait    time.Duration // 思考时间上限, 默认 3 秒
	Seed       int64         // 随机种子, 0 用当前时间
}

// LoadGenStats 压测统计, 计数器并发安全
type LoadGenStats struct {
	Searches  int64 // 带词搜索
	Details   int64 // 详情页
	Browses   int64 // 首页/空搜索
	Failures  int64 // 网络错误或 5xx
	latencyNs int64
}

// Requests 总请求数
func (s *LoadGenStats) Requests() int64 {
	return atomic.LoadInt64(&s.Searches) + atomic.LoadInt64(&s.Details) + atomic.LoadInt64(&s.Browses)
}

// AvgLatency 平均响应时间
func (s *LoadGenStats) AvgLatency() time.Duration {
	n := s.Requests()
	if n == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&s.latencyNs) / n)
}

// Summary 人读的结果摘要
func (s *LoadGenStats) Summary() string {
	return fmt.Sprintf("请求 %d (搜索 %d, 详情 %d, 浏览 %d), 失败 %d, 平均耗时 %s",
		s.Requests(), atomic.LoadInt64(&s.Searches), atomic.LoadInt64(&s.Details),
		atomic.LoadInt64(&s.Browses), atomic.LoadInt64(&s.Failures),
		s.AvgLatency().Round(time.Millisecond))
}

// LoadGenerator 模拟浏览行为的压测器。
// 任务按 搜索:详情:浏览 = 3:2:1 加权轮转, 每步之间留随机思考时间。
type LoadGenerator struct {
	opts    LoadGenOptions
	client  *utils.HTTPClient
	queries []string
	tconsts []string
}

// NewLoadGenerator 创建压测器并加载查询集文件
func NewLoadGenerator(opts LoadGenOptions) (*LoadGenerator, error) {
	if opts.Users <= 0 {
		opts.Users = 1
	}
	if opts.Duration <= 0 {
		opts.Duration = time.Minute
	}
	if opts.MinWait <= 0 {
		opts.MinWait = time.Second
	}
	if opts.MaxWait <= opts.MinWait {
		opts.MaxWait = opts.MinWait + 2*time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		return nil, errors.New("必须指定目标地址")
	}

	queries, err := readLines(opts.QueryFile)
	if err != nil {
		return nil, fmt.Errorf("读取搜索词文件失败: %w", err)
	}
	if len(queries) == 0 {
		return nil, errors.New("搜索词文件是空的, 请先执行 queryset")
	}

	var tconsts []string
	if opts.TconstFile != "" {
		tconsts, err = readLines(opts.TconstFile)
		if err != nil {
			return nil, fmt.Errorf("读取影片编号文件失败: %w", err)
		}
	}

	return &LoadGenerator{
		opts:    opts,
		client:  utils.NewHTTPClient(opts.Timeout),
		queries: queries,
		tconsts: tconsts,
	}, nil
}

// Run 启动全部虚拟用户并等待压测结束
func (lg *LoadGenerator) Run(ctx context.Context) (*LoadGenStats, error) {
	ctx, cancel := context.WithTimeout(ctx, lg.opts.Duration)
	defer cancel()

	seed := lg.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.Printf("[LoadGen] %d 个虚拟用户, 时长 %s, 目标 %s",
		lg.opts.Users, lg.opts.Duration, lg.opts.BaseURL)

	stats := &LoadGenStats{}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < lg.opts.Users; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		g.Go(func() error {
			lg.user(ctx, rng, stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// user 单个虚拟用户的访问循环
func (lg *LoadGenerator) user(ctx context.Context, rng *rand.Rand, stats *LoadGenStats) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lg.step(rng, stats)

		wait := lg.opts.MinWait + time.Duration(rng.Int63n(int64(lg.opts.MaxWait-lg.opts.MinWait)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// step 按权重选一个任务执行
func (lg *LoadGenerator) step(rng *rand.Rand, stats *LoadGenStats) {
	n := rng.Intn(6)
	if n >= 3 && n < 5 && len(lg.tconsts) == 0 {
		// 没有影片编号文件时详情任务退化为浏览
		n = 5
	}

	var target string
	var counter *int64
	switch {
	case n < 3:
		q := lg.queries[rng.Intn(len(lg.queries))]
		target = lg.opts.BaseURL + "/search?q=" + url.QueryEscape(q)
		counter = &stats.Searches
	case n < 5:
		id := lg.tconsts[rng.Intn(len(lg.tconsts))]
		target = lg.opts.BaseURL + "/movie/" + url.PathEscape(id)
		counter = &stats.Details
	default:
		target = lg.opts.BaseURL + "/search"
		counter = &stats.Browses
	}

	start := time.Now()
	status, err := lg.client.GetDiscard(target)
	atomic.AddInt64(&stats.latencyNs, int64(time.Since(start)))
	atomic.AddInt64(counter, 1)

	if err != nil || status >= 500 {
		atomic.AddInt64(&stats.Failures, 1)
	}
}

// readLines 读取一行一条的查询集文件, 空行忽略
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
