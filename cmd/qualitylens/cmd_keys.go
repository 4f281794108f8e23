package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/qualitylens/internal/apikey"
	"github.com/kiranshivaraju/qualitylens/internal/config"
	"github.com/kiranshivaraju/qualitylens/internal/store"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newKeysCreateCmd())
	return cmd
}

type mintedKey struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Key       string   `json:"key"`
	KeyPrefix string   `json:"key_prefix"`
	KeyHash   string   `json:"key_hash"`
	Scopes    []string `json:"scopes"`
	Stored    bool     `json:"stored"`
}

func newKeysCreateCmd() *cobra.Command {
	var (
		name        string
		scopes      []string
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Mint an API key",
		Long: "create mints an API key and prints it once. With --database-url (or\n" +
			"DATABASE_URL) the key is stored directly; otherwise the bcrypt hash is\n" +
			"printed for manual insertion. Use this to bootstrap the first admin key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, raw, err := apikey.Generate(name, scopes, time.Now())
			if err != nil {
				return err
			}

			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			stored := false
			if databaseURL != "" {
				pool, err := store.Connect(cmd.Context(), config.DatabaseConfig{
					URL:             databaseURL,
					MaxOpenConns:    2,
					MaxIdleConns:    0,
					ConnMaxLifetime: time.Minute,
				})
				if err != nil {
					return fmt.Errorf("connect database: %w", err)
				}
				defer pool.Close()

				if err := store.NewPostgresStore(pool).CreateAPIKey(cmd.Context(), key); err != nil {
					return fmt.Errorf("store key: %w", err)
				}
				stored = true
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(mintedKey{
				ID:        key.ID.String(),
				Name:      key.Name,
				Key:       raw,
				KeyPrefix: key.KeyPrefix,
				KeyHash:   key.KeyHash,
				Scopes:    key.Scopes,
				Stored:    stored,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "key name (required)")
	f.StringSliceVar(&scopes, "scope", []string{apikey.ScopeAnalyst}, "granted scopes (admin, analyst)")
	f.StringVar(&databaseURL, "database-url", "", "store the key in this database")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
