package cli

import (
	"github.com/spf13/cobra"

	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/service"
)

var querysetCmd = &cobra.Command{
	Use:   "queryset",
	Short: "按票数加权生成压测查询集",
	Long: `从库里带投票数的影片中按票数加权采样，生成压测用的搜索词文件。
票数越高的影片标题出现得越频繁，接近真实流量的热门度分布。
可以同时生成一份影片编号文件，给 loadgen 的详情页任务用。`,
	RunE: runQueryset,
}

var querysetFlags struct {
	count       int
	output      string
	tconstCount int
	tconstFile  string
	seed        int64
}

func init() {
	rootCmd.AddCommand(querysetCmd)
	querysetCmd.Flags().IntVar(&querysetFlags.count, "count", 10000, "搜索词条数")
	querysetCmd.Flags().StringVar(&querysetFlags.output, "output", "queries.txt", "搜索词输出文件")
	querysetCmd.Flags().IntVar(&querysetFlags.tconstCount, "tconst-count", 500, "影片编号条数，0 表示不生成")
	querysetCmd.Flags().StringVar(&querysetFlags.tconstFile, "tconst-file", "sample_tconsts.txt", "影片编号输出文件")
	querysetCmd.Flags().Int64Var(&querysetFlags.seed, "seed", 0, "随机种子，0 表示按当前时间")
}

func runQueryset(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	g := service.NewQuerySetGenerator(repository.NewRepositories(db))
	return g.Generate(service.QuerySetOptions{
		Count:       querysetFlags.count,
		Output:      querysetFlags.output,
		TconstCount: querysetFlags.tconstCount,
		TconstFile:  querysetFlags.tconstFile,
		Seed:        querysetFlags.seed,
	})
}
