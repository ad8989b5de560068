// Package testutil 提供测试用的临时数据库与数据文件工具。
package testutil

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/cinedb/internal/repository"
)

// DB 返回基于临时文件的 SQLite 测试库，表结构已建好，测试结束自动清理
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "cinedb_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("打开测试数据库失败: %v", err)
	}

	if err := repository.AutoMigrate(db); err != nil {
		tb.Fatalf("同步测试库表结构失败: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// WriteTSV 在 dir 下写入制表符分隔的数据文件，lines 为整行文本
func WriteTSV(tb testing.TB, dir, name string, lines ...string) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("写入测试数据文件失败: %v", err)
	}
	return path
}

// WriteTSVGz 与 WriteTSV 相同，但写成 gzip 压缩文件
func WriteTSVGz(tb testing.TB, dir, name string, lines ...string) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("创建测试数据文件失败: %v", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		tb.Fatalf("写入 gzip 测试数据失败: %v", err)
	}
	if err := gw.Close(); err != nil {
		tb.Fatalf("关闭 gzip 写入器失败: %v", err)
	}
	return path
}
