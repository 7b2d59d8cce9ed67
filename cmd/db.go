package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"partsshop_v1_202610/internal/seed"
	"partsshop_v1_202610/pkg/logger"
)

// partsshop migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "自动建表/迁移全部模型",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := boot()
		if err != nil {
			return err
		}
		defer logger.Sync()

		_, err = openDB(cfg, true)
		return err
	},
}

// partsshop seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "写入演示分类、筛选器、品牌与商品（可重复执行）",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := boot()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := openDB(cfg, true)
		if err != nil {
			return err
		}
		c, closeCache, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeCache()

		res, err := seed.New(db, c).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("属性 %d / 分类 %d / 筛选器 %d / 品牌 %d / 商品 %d\n",
			res.Attributes, res.Categories, res.Filters, res.Brands, res.Products)
		return nil
	},
}
