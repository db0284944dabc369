package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragsense/ragsense/internal/adapters/driven/auth"
	"github.com/ragsense/ragsense/internal/core/domain"
)

var (
	tokenSubject string
	tokenRole    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token",
	Long: `Signs an access token with JWT_SECRET without going through the operator
key exchange. Useful for provisioning service accounts.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [operator-key]",
	Short: "Print the bcrypt hash of an operator key for OPERATOR_KEY_HASH",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashKey,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleOperator), "token role (operator or reader)")
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(hashKeyCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	authService := newAuthService(cfg)
	if authService == nil {
		return errors.New("auth not configured: set JWT_SECRET and OPERATOR_KEY_HASH")
	}

	resp, err := authService.MintToken(context.Background(), tokenSubject, domain.Role(tokenRole))
	if err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, resp)
	}
	cmd.Println(resp.Token)
	return nil
}

func runHashKey(cmd *cobra.Command, args []string) error {
	hash, err := auth.NewAdapter(cfg.Auth.JWTSecret).HashKey(args[0])
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}
	cmd.Println(hash)
	return nil
}
