package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/certvault/internal/api"
	"github.com/dmitrijs2005/certvault/internal/archive"
	"github.com/dmitrijs2005/certvault/internal/common"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/services"
	"github.com/spf13/cobra"
)

func (a *App) createCommand() *cobra.Command {
	var (
		input       string
		outputDir   string
		remote      bool
		accessToken string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a data sanitization certificate from a user/device JSON file",
		Long: `Create a certificate from a JSON file with "user" and "device" sections.

user.name is required; user.date, user.course and user.output are optional.
device.action_type must be "purge" or "clear", otherwise nothing is issued.
The verification token is printed once and stored nowhere.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			req, err := parseCreateInput(input)
			if err != nil {
				return err
			}
			req.Secret = a.globalFlags.secret

			if remote {
				return a.createRemote(cmd, cfg, req, accessToken)
			}
			return a.withStore(cmd, func(store recordStore) error {
				issuer := services.NewIssuer(cfg, store, archive.New(cfg.S3), a.logger, nil)
				res, err := issuer.Issue(cmd.Context(), req)
				if err != nil {
					return err
				}
				a.printIssued(req, res.Record.CertificateID, res.DocumentPath, res.Token)
				if res.Archived {
					a.detail(2, "Archive key", res.ArchiveKey)
				}
				if !res.Persisted {
					a.warnf("! Record not persisted, verification will rely on embedded metadata only")
				}
				if !res.Embedded {
					a.warnf("! Metadata not embedded, the document cannot be verified from the file")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "JSON file with 'user' and 'device' sections")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for issued documents")
	cmd.Flags().BoolVar(&remote, "remote", false, "issue on the certvault server instead of locally")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "issuer access token for --remote")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *App) createRemote(cmd *cobra.Command, cfg *config.Config, req services.IssueRequest, accessToken string) error {
	if req.Secret != "" {
		return fmt.Errorf("%w: --secret cannot be used with --remote", common.ErrorValidation)
	}
	c, err := a.dialRemote(cfg.RemoteAddr, accessToken)
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Issue(cmd.Context(), api.IssueRequest{
		RecipientName: req.RecipientName,
		IssueDate:     req.IssueDate,
		CourseName:    req.CourseName,
		DeviceInfo:    req.DeviceInfo,
		OutputName:    req.OutputName,
	})
	if err != nil {
		return err
	}
	a.printIssued(req, resp.CertificateID, resp.DocumentPath, resp.Token)
	return nil
}

func parseCreateInput(path string) (services.IssueRequest, error) {
	data, err := readObject(path)
	if err != nil {
		return services.IssueRequest{}, err
	}

	user, _ := data["user"].(map[string]any)
	device, _ := data["device"].(map[string]any)
	switch {
	case len(user) == 0:
		return services.IssueRequest{}, errors.New("'user' section missing in JSON")
	case len(device) == 0:
		return services.IssueRequest{}, errors.New("'device' section missing in JSON")
	case stringField(user, "name") == "":
		return services.IssueRequest{}, errors.New("'user.name' is required")
	}
	if err := services.ValidateAction(device["action_type"]); err != nil {
		return services.IssueRequest{}, fmt.Errorf("%w, certificate will not be generated", err)
	}

	return services.IssueRequest{
		RecipientName: stringField(user, "name"),
		IssueDate:     stringField(user, "date"),
		CourseName:    stringField(user, "course"),
		OutputName:    stringField(user, "output"),
		DeviceInfo:    device,
	}, nil
}

func (a *App) printIssued(req services.IssueRequest, id, path, token string) {
	a.successf("✓ Certificate generated successfully")
	a.detail(2, "File path", path)
	a.detail(2, "Certificate ID", id)
	a.detail(2, "Recipient Name", req.RecipientName)

	d := req.DeviceInfo
	a.printf("  Device details on certificate:\n")
	a.detail(4, "Operating System", orNA(d, "Operating System", "os"))
	a.detail(4, "Device ID", orNA(d, "device_id"))
	a.detail(4, "Space Recovered", orNA(d, "size_removed"))
	a.detail(4, "Operation Type", orNA(d, "action_type"))
	a.detail(4, "Time & Date", orNA(d, "timestamp"))

	a.printf("  Verification token (store safely): %s\n", token)
}
