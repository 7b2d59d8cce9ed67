package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var configFile string

var rootCmd = &cobra.Command{
	Use:           "partsshop",
	Short:         "电子零件商城后端",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径（默认查找 ./config.yaml）")

	// 服务
	rootCmd.AddCommand(serveCmd)

	// 数据库
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)

	// 管理员
	rootCmd.AddCommand(adminCmd)
}
