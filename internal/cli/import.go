package cli

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/cinedb/internal/repository"
	"github.com/user/cinedb/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "导入 IMDB TSV 数据集",
	Long: `从指定目录读取四个 IMDB 官方数据文件并写入数据库:

  name.basics.tsv       影人
  title.basics.tsv      影片
  title.ratings.tsv     评分
  title.principals.tsv  演职记录

文件可以是 .tsv 或 .tsv.gz，两者都在时优先用压缩包。
字段值 \N 作为空值处理，缺主键或外键对不上的行跳过。
重复执行不会产生重复数据。`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importFlags struct {
	reset  bool
	noCopy bool
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importFlags.reset, "reset", false, "导入前清空现有数据")
	importCmd.Flags().BoolVar(&importFlags.noCopy, "no-copy", false, "禁用 COPY 快速通道，全部走批量 INSERT")
}

func runImport(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	im := service.NewImporter(db, repository.NewRepositories(db), service.ImportOptions{
		Reset:  importFlags.reset,
		NoCopy: importFlags.noCopy,
	})

	start := time.Now()
	stats, err := im.Run(args[0])
	if err != nil {
		return err
	}

	var loaded, skipped int
	for _, s := range stats {
		loaded += s.Loaded
		skipped += s.Skipped
	}
	log.Printf("[Importer] 全部完成: 写入 %d 行, 跳过 %d 行, 总耗时 %s",
		loaded, skipped, time.Since(start).Round(time.Second))
	return nil
}
