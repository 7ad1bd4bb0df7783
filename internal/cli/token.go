package cli

import (
	"time"

	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/server/auth"
	"github.com/spf13/cobra"
)

func (a *App) tokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an issuer access token for the gRPC Issue call",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if ttl <= 0 {
				ttl = cfg.AccessTokenTTL
			}
			tok, err := auth.GenerateToken(subject, []byte(cfg.AuthSecret), ttl)
			if err != nil {
				return err
			}
			a.printf("%s\n", tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "issuing party named in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
