package cli

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/user/cinedb/internal/config"
	"github.com/user/cinedb/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:   "cinedb",
	Short: "IMDB 数据集影片检索服务",
	Long: `cinedb 把 IMDB 官方 TSV 数据集导入 PostgreSQL，
提供影片标题搜索和详情页面，并附带配套的压测工具。

常用流程:
  cinedb import ./data   导入四个 IMDB 数据文件
  cinedb serve           启动 Web 服务
  cinedb queryset        按票数加权生成压测搜索词
  cinedb loadgen         模拟用户访问运行中的服务`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// 加载环境变量
		if err := godotenv.Load(); err != nil {
			log.Println("未找到 .env 文件，使用系统环境变量")
		}
	},
}

// Execute 运行根命令
func Execute() error {
	return rootCmd.Execute()
}

// openDB 加载配置、连接数据库并同步表结构
func openDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()

	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, nil, fmt.Errorf("同步表结构失败: %w", err)
	}
	return cfg, db, nil
}

// closeDB 关闭底层连接
func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
