package service

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// nullField IMDb 数据里的空值哨兵
const nullField = `\N`

// tsvReader 逐行读取制表符分隔的数据文件，支持 gzip 压缩，按表头定位列。
// 列数不足、空行等脏数据由调用方按字段缺失处理，不在这里报错。
type tsvReader struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	cols    map[string]int
	line    int
}

// openTSV 打开 dir 下的数据文件，优先找 gzip 压缩的 name.gz，找不到再用 name 本身
func openTSV(dir, name string) (*tsvReader, error) {
	path := filepath.Join(dir, name+".gz")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(dir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开数据文件失败: %w", err)
	}

	r := &tsvReader{path: path, file: f}

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("读取 gzip 数据失败: %w", err)
		}
		r.gz = gz
		src = gz
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	r.scanner = sc

	// 第一行是表头
	if !sc.Scan() {
		r.Close()
		return nil, fmt.Errorf("数据文件为空: %s", path)
	}
	header := strings.Split(sc.Text(), "\t")
	r.cols = make(map[string]int, len(header))
	for i, h := range header {
		r.cols[strings.TrimSpace(h)] = i
	}
	r.line = 1

	return r, nil
}

// Next 读取下一行并按制表符拆分，空行跳过，读完返回 false
func (r *tsvReader) Next() ([]string, bool) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if text == "" {
			continue
		}
		return strings.Split(text, "\t"), true
	}
	return nil, false
}

// Field 取指定列的值，\N 哨兵与缺列一律返回空串
func (r *tsvReader) Field(fields []string, col string) string {
	idx, ok := r.cols[col]
	if !ok || idx >= len(fields) {
		return ""
	}
	return cleanField(fields[idx])
}

// Line 当前行号，表头算第一行
func (r *tsvReader) Line() int {
	return r.line
}

// Err 底层读取错误
func (r *tsvReader) Err() error {
	return r.scanner.Err()
}

func (r *tsvReader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}

// cleanField 把 \N 哨兵还原成空串
func cleanField(s string) string {
	if s == nullField {
		return ""
	}
	return s
}

// parseIntField 解析整数列，空值或非法数字返回 nil
func parseIntField(s string) *int {
	if s == "" || s == nullField {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// parseFloatField 解析小数列，空值或非法数字返回 nil
func parseFloatField(s string) *float64 {
	if s == "" || s == nullField {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
