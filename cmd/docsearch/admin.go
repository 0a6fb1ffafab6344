package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/repository/postgres"
	"github.com/kailas-cloud/docsearch/internal/usecase/access"
)

var (
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or promote a global administrator",
	Long: `Create a user with the global ADMIN role, or promote an existing one and
reset its password. The password may also be given through the
DOCSEARCH_ADMIN_PASSWORD environment variable.`,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "administrator email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "administrator password")
	rootCmd.AddCommand(createAdminCmd)
}

// errMissingFlag reports a required flag left empty.
func errMissingFlag(name string) error {
	return fmt.Errorf("--%s is required", name)
}

// adminCredentials resolves the email and password from flags and environment.
func adminCredentials() (string, string, error) {
	if adminEmail == "" {
		return "", "", errMissingFlag("email")
	}
	password := adminPassword
	if password == "" {
		password = os.Getenv("DOCSEARCH_ADMIN_PASSWORD")
	}
	if password == "" {
		return "", "", errMissingFlag("password")
	}
	return adminEmail, password, nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	email, password, err := adminCredentials()
	if err != nil {
		return err
	}

	cfg, logger, err := bootstrap(environment())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pg, err := openMetadataStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	gate := access.NewGate(postgres.NewIndexRepo(pg), postgres.NewRoleRepo(pg))
	u, err := newUserService(cfg, pg, gate).CreateAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	logger.Info("Administrator ready", zap.String("email", u.Email), zap.Int64("id", u.ID))
	cmd.Printf("administrator %s ready\n", u.Email)
	return nil
}
