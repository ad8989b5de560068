package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cinedb/internal/service"
)

var loadgenCmd = &cobra.Command{
	Use:   "loadgen",
	Short: "模拟用户访问压测服务",
	Long: `启动若干虚拟用户持续访问目标服务。
每个用户按 搜索:详情:浏览 = 3:2:1 的权重轮流执行任务，
任务之间随机停顿，模拟真人的浏览节奏。
搜索词来自 queryset 生成的文件。`,
	RunE: runLoadgen,
}

var loadgenFlags struct {
	baseURL    string
	users      int
	duration   time.Duration
	queryFile  string
	tconstFile string
	minWait    time.Duration
	maxWait    time.Duration
	seed       int64
}

func init() {
	rootCmd.AddCommand(loadgenCmd)
	loadgenCmd.Flags().StringVar(&loadgenFlags.baseURL, "base-url", "http://localhost:5008", "目标服务地址")
	loadgenCmd.Flags().IntVar(&loadgenFlags.users, "users", 10, "并发虚拟用户数")
	loadgenCmd.Flags().DurationVar(&loadgenFlags.duration, "duration", time.Minute, "压测时长")
	loadgenCmd.Flags().StringVar(&loadgenFlags.queryFile, "query-file", "queries.txt", "搜索词文件")
	loadgenCmd.Flags().StringVar(&loadgenFlags.tconstFile, "tconst-file", "", "影片编号文件，留空则详情任务退化为浏览")
	loadgenCmd.Flags().DurationVar(&loadgenFlags.minWait, "min-wait", time.Second, "思考时间下限")
	loadgenCmd.Flags().DurationVar(&loadgenFlags.maxWait, "max-wait", 3*time.Second, "思考时间上限")
	loadgenCmd.Flags().Int64Var(&loadgenFlags.seed, "seed", 0, "随机种子，0 表示按当前时间")
}

func runLoadgen(cmd *cobra.Command, args []string) error {
	lg, err := service.NewLoadGenerator(service.LoadGenOptions{
		BaseURL:    loadgenFlags.baseURL,
		Users:      loadgenFlags.users,
		Duration:   loadgenFlags.duration,
		QueryFile:  loadgenFlags.queryFile,
		TconstFile: loadgenFlags.tconstFile,
		MinWait:    loadgenFlags.minWait,
		MaxWait:    loadgenFlags.maxWait,
		Seed:       loadgenFlags.seed,
	})
	if err != nil {
		return err
	}

	// Ctrl+C 提前结束也要打出统计
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := lg.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println(stats.Summary())
	return nil
}
