package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/pkg/logger"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "管理员账号维护",
}

var (
	adminUsername string
	adminPassword string
	adminEmail    string
)

// partsshop admin create --username admin --password ******
var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建管理员；已存在时重置密码并启用",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminUsername == "" || len(adminPassword) < 6 {
			return errors.New("需要 --username 与至少 6 位的 --password")
		}

		cfg, err := boot()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := openDB(cfg, true)
		if err != nil {
			return err
		}

		users := service.NewUserService(repository.NewUserRepository(db))
		info, created, err := users.EnsureAdmin(cmd.Context(), adminUsername, adminPassword, adminEmail)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("管理员 %s 已创建 (id=%d)\n", info.Username, info.ID)
		} else {
			fmt.Printf("管理员 %s 已存在，密码已重置 (id=%d)\n", info.Username, info.ID)
		}
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVarP(&adminUsername, "username", "u", "admin", "用户名")
	adminCreateCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "密码")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "邮箱")
	adminCmd.AddCommand(adminCreateCmd)
}
