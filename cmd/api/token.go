package main

import (
	"fmt"
	"strings"

	"gym-admin-service/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

var (
	tokenIdentityID int64
	tokenRoles      string
)

// newTokenCommand signs a staff token with the local private key. Production
// tokens come from the identity service.
func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE:  runToken,
	}

	cmd.Flags().Int64Var(&tokenIdentityID, "identity", 1, "Identity ID placed in the token")
	cmd.Flags().StringVar(&tokenRoles, "roles", jwt.RoleAdmin, "Comma-separated roles")

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, logger, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()

	generator, err := jwt.LoadGenerator(cfg.JWT)
	if err != nil {
		return err
	}

	var roles []string
	for _, r := range strings.Split(tokenRoles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}

	token, _, err := generator.GenerateAccessToken(tokenIdentityID, roles)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
