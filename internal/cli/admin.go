package cli

import (
	"patient-intake-server/internal/auth"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var adminInput auth.CreateUserInput

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `create-admin creates an account with the admin role. Public sign-up only
ever creates staff accounts, so the first admin is created here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		adminInput.Role = models.RoleAdmin
		if err := utils.Validate(&adminInput); err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		svc := auth.NewService(db, auth.NewTokens(cfg), logger)
		user, err := svc.CreateUser(cmd.Context(), adminInput)
		if err != nil {
			return err
		}
		logger.Info("admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
		return nil
	},
}

func init() {
	flags := createAdminCmd.Flags()
	flags.StringVar(&adminInput.Email, "email", "", "Admin email")
	flags.StringVar(&adminInput.Password, "password", "", "Admin password (at least 8 characters)")
	flags.StringVar(&adminInput.FirstName, "first-name", "Clinic", "First name")
	flags.StringVar(&adminInput.LastName, "last-name", "Admin", "Last name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
