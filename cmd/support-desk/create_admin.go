package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
)

var (
	createAdminCmd = &cobra.Command{
		RunE:  runCreateAdmin,
		Use:   "create-admin",
		Short: "register the first ROLE_ADMIN account",
	}
	adminInput service.RegistrationInput
)

func init() {
	flags := createAdminCmd.Flags()
	flags.StringVar(&adminInput.Username, "username", "", "admin username")
	flags.StringVar(&adminInput.Password, "password", "", "admin password")
	flags.StringVar(&adminInput.Email, "email", "", "admin email")
	flags.StringVar(&adminInput.FullName, "full-name", "", "admin full name")
	flags.StringVar(&adminInput.EmployeeCode, "employee-code", "", "employee code")
	flags.StringVar(&adminInput.Department, "department", "", "department")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	users := service.NewUserService(service.UserDependencies{
		UserRepo:  repository.NewUserRepository(pool),
		TxManager: repository.NewTxManager(pool),
		Hasher:    auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Logger:    logger,
	})

	user, err := users.Register(ctx, adminInput, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}
