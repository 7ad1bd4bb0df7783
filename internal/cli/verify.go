package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/certvault/internal/carrier"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/cryptox"
	"github.com/dmitrijs2005/certvault/internal/models"
	"github.com/dmitrijs2005/certvault/internal/services"
	"github.com/spf13/cobra"
)

func (a *App) verifyFileCommand() *cobra.Command {
	var file, token string

	cmd := &cobra.Command{
		Use:   "verify-file",
		Short: "Verify a certificate document using its embedded metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := a.loadPayload(file)
			if err != nil {
				return err
			}
			return a.verifyLocal(cmd, services.VerifyRequest{Payload: &payload, Token: token})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "document to verify")
	cmd.Flags().StringVar(&token, "token", "", "verification token (optional)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *App) verifyDBCommand() *cobra.Command {
	var certID, name, course, token string

	cmd := &cobra.Command{
		Use:   "verify-db",
		Short: "Verify a certificate by id and claimed fields against the record stores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.verifyLocal(cmd, services.VerifyRequest{
				CertificateID: certID,
				Claimed:       claimedFields(cmd, name, course),
				Token:         token,
			})
		},
	}

	cmd.Flags().StringVar(&certID, "cert-id", "", "certificate id")
	cmd.Flags().StringVar(&name, "name", "", "recipient name")
	cmd.Flags().StringVar(&course, "course", "", "course name (optional)")
	cmd.Flags().StringVar(&token, "token", "", "verification token (optional)")
	_ = cmd.MarkFlagRequired("cert-id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *App) verifyRemoteCommand() *cobra.Command {
	var addr, certID, file, name, course, token string

	cmd := &cobra.Command{
		Use:   "verify-remote",
		Short: "Verify a certificate on a certvault server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if certID == "" && file == "" {
				return errors.New("either --cert-id or --file is required")
			}
			req := services.VerifyRequest{
				CertificateID: certID,
				Claimed:       claimedFields(cmd, name, course),
				Token:         token,
			}
			if file != "" {
				payload, err := a.loadPayload(file)
				if err != nil {
					return err
				}
				req.Payload = &payload
			}

			if addr == "" {
				addr = config.FromContext(cmd.Context()).RemoteAddr
			}
			c, err := a.dialRemote(addr, "")
			if err != nil {
				return err
			}
			defer c.Close()

			v, err := c.Verify(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("remote verification: %w", err)
			}
			return a.reportVerdict(v)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "server address (default from config)")
	cmd.Flags().StringVar(&certID, "cert-id", "", "certificate id")
	cmd.Flags().StringVar(&file, "file", "", "document to verify")
	cmd.Flags().StringVar(&name, "name", "", "recipient name (optional)")
	cmd.Flags().StringVar(&course, "course", "", "course name (optional)")
	cmd.Flags().StringVar(&token, "token", "", "verification token (optional)")
	return cmd
}

func (a *App) verifyLocal(cmd *cobra.Command, req services.VerifyRequest) error {
	cfg := config.FromContext(cmd.Context())
	stamper := cryptox.NewStamper(cfg.StamperConfig(a.globalFlags.secret))

	return a.withStore(cmd, func(store recordStore) error {
		v := services.NewVerifier(store, stamper, a.logger, nil).Verify(cmd.Context(), req)
		return a.reportVerdict(v)
	})
}

// loadPayload extracts the carrier payload of the document at path.
func (a *App) loadPayload(path string) (models.Payload, error) {
	payload, err := carrier.ExtractPayload(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return models.Payload{}, fmt.Errorf("file not found: %s", path)
	case errors.Is(err, carrier.ErrNotFound):
		a.failuref(a.out, "✗ No embedded certificate metadata found in document (%s)", services.ReasonNoMetadata)
		return models.Payload{}, errNotVerified
	case err != nil:
		return models.Payload{}, err
	}
	return payload, nil
}

// claimedFields lists the name, and the course only when --course was
// given, so that certificates without a course still verify.
func claimedFields(cmd *cobra.Command, name, course string) []services.Field {
	var fields []services.Field
	if cmd.Flags().Changed("name") {
		fields = append(fields, services.Field{Name: "recipient_name", Value: name})
	}
	if cmd.Flags().Changed("course") {
		fields = append(fields, services.Field{Name: "course_name", Value: course})
	}
	return fields
}
