package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fekuna/repairshop-service/internal/auth"
	"github.com/fekuna/repairshop-service/internal/auth/dto"
	authRepoPkg "github.com/fekuna/repairshop-service/internal/auth/repository"
	authUCPkg "github.com/fekuna/repairshop-service/internal/auth/usecase"
	"github.com/spf13/cobra"
)

var (
	staffEmail    string
	staffName     string
	staffRole     string
	staffPassword string
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage back-office accounts",
}

var staffCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account that can sign in to the admin API",
	Args:  cobra.NoArgs,
	RunE:  runStaffCreate,
}

func init() {
	staffCreateCmd.Flags().StringVar(&staffEmail, "email", "", "sign-in email")
	staffCreateCmd.Flags().StringVar(&staffName, "name", "", "display name")
	staffCreateCmd.Flags().StringVar(&staffRole, "role", authUCPkg.DefaultRole, "role")
	staffCreateCmd.Flags().StringVar(&staffPassword, "password", "", "password (default $ADMIN_PASSWORD)")
	_ = staffCreateCmd.MarkFlagRequired("email")

	staffCmd.AddCommand(staffCreateCmd)
}

func runStaffCreate(cmd *cobra.Command, args []string) error {
	password := staffPassword
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("a password is required, pass --password or set ADMIN_PASSWORD")
	}

	b, err := openBackends(cmd.Context())
	if err != nil {
		return err
	}
	// No tokens are issued here, so the revoker is never consulted.
	uc := authUCPkg.NewAuthUseCase(
		authRepoPkg.NewDocRepository(b.store),
		auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.TokenTTL),
		auth.NewMemoryRevoker(),
		appLog,
	)

	staff, err := uc.CreateStaff(cmd.Context(), &dto.CreateStaffInput{
		Email:       staffEmail,
		Password:    password,
		DisplayName: staffName,
		Role:        staffRole,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with role %s\n", staff.Email, staff.ID, staff.Role)
	return nil
}
