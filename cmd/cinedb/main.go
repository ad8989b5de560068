package main

import (
	"os"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/user/cinedb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
