package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/connectors/catchpy"
)

var (
	tokenOverride []string
	tokenTTL      time.Duration
)

var makeTokenCmd = &cobra.Command{
	Use:   "make-token [user]",
	Short: "Print a signed token for a user",
	Long: `Prints a token signed with the consumer key and secret, issued for the given
user (default "user"). Only the token is written to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMakeToken,
}

func init() {
	makeTokenCmd.Flags().StringVar(&flagValues.apiKey, "api-key", "", "consumer key used to sign tokens")
	makeTokenCmd.Flags().StringVar(&flagValues.secretKey, "secret-key", "", "consumer secret (prompted when omitted)")
	makeTokenCmd.Flags().StringSliceVar(&tokenOverride, "override", nil, "override permissions, e.g. CAN_IMPORT")
	makeTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default 24h)")
	rootCmd.AddCommand(makeTokenCmd)
}

func runMakeToken(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Source.SecretKey == "" {
		cfg.Source.SecretKey = promptSecret(cmd)
	}

	user := "user"
	if len(args) > 0 {
		user = args[0]
	}
	token, _, err := catchpy.NewSigner(cfg.Source.APIKey, cfg.Source.SecretKey, tokenTTL).Sign(user, tokenOverride...)
	if err != nil {
		return fmt.Errorf("make token: %w", err)
	}
	cmd.Println(token)
	return nil
}
