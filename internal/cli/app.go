// Package cli implements the certvault command line: issuing certificates,
// logging device cleanups and verifying documents locally or remotely.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/certvault/internal/api"
	"github.com/dmitrijs2005/certvault/internal/client"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/repositories/records"
	"github.com/dmitrijs2005/certvault/internal/services"
	"github.com/spf13/cobra"
)

const programName = "certvault"

// Exit codes. exitUnconfirmed means the document carries credentials that
// no record store could confirm.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUnconfirmed = 3
)

var (
	errNotVerified = errors.New("certificate not verified")
	errUnconfirmed = errors.New("certificate not confirmed by a record store")
	// errReported marks failures already printed to the user.
	errReported = errors.New("reported")
)

type recordStore interface {
	services.RecordFinder
	services.RecordAppender
	Backends() []string
	Close() error
}

type remoteService interface {
	Issue(ctx context.Context, req api.IssueRequest) (*api.IssueResponse, error)
	Verify(ctx context.Context, req services.VerifyRequest) (services.Verdict, error)
	Close() error
}

type App struct {
	out    io.Writer
	errOut io.Writer
	color  bool

	globalFlags struct {
		configFile string
		debug      bool
		secret     string
	}

	logger logging.Logger

	openStore  func(ctx context.Context, cfg *config.Config, logger logging.Logger) recordStore
	dialRemote func(addr, accessToken string) (remoteService, error)
}

// NewApp writes results to out and diagnostics to errOut. Colors are used
// only when out is a terminal.
func NewApp(out, errOut io.Writer) *App {
	return &App{
		out:    out,
		errOut: errOut,
		color:  isTerminal(out),
		logger: logging.Nop(),
		openStore: func(ctx context.Context, cfg *config.Config, logger logging.Logger) recordStore {
			return records.Open(ctx, cfg, logger)
		},
		dialRemote: func(addr, accessToken string) (remoteService, error) {
			c, err := client.NewGRPCClient(addr, accessToken)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Issue and verify tamper-evident certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.globalFlags.configFile, "config", "", "path to config file (JSON or YAML)")
	pf.BoolVarP(&a.globalFlags.debug, "debug", "D", false, "enable debug logging")
	pf.StringVar(&a.globalFlags.secret, "secret", "", "HMAC secret, overrides CERT_SECRET")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(a.globalFlags.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if a.globalFlags.debug {
			cfg.Debug = true
		}
		a.logger = logging.NewCLI(a.errOut, cfg.Debug)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	root.AddCommand(
		a.createCommand(),
		a.processDeviceCommand(),
		a.verifyFileCommand(),
		a.verifyDBCommand(),
		a.verifyRemoteCommand(),
		a.tokenCommand(),
		a.versionCommand(),
	)
	return root
}

// Execute runs the command line in args and returns the exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUnconfirmed):
		return exitUnconfirmed
	case errors.Is(err, errNotVerified), errors.Is(err, errReported):
		return exitFailure
	}
	a.failuref(a.errOut, "✗ %v", err)
	return exitFailure
}

func (a *App) withStore(cmd *cobra.Command, fn func(store recordStore) error) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	store := a.openStore(ctx, cfg, a.logger)
	a.logger.Debug(ctx, "record stores", "backends", store.Backends())
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn(ctx, "closing record stores", "error", err)
		}
	}()
	return fn(store)
}
