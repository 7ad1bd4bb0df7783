package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/certvault/internal/services"
	"golang.org/x/term"
)

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *App) paint(w io.Writer, color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if a.color {
		msg = color + msg + ansiReset
	}
	fmt.Fprintln(w, msg)
}

func (a *App) successf(format string, args ...any) { a.paint(a.out, ansiGreen, format, args...) }
func (a *App) warnf(format string, args ...any)    { a.paint(a.out, ansiYellow, format, args...) }

func (a *App) failuref(w io.Writer, format string, args ...any) { a.paint(w, ansiRed, format, args...) }

func (a *App) printf(format string, args ...any) { fmt.Fprintf(a.out, format, args...) }

// detail prints an aligned "  Label : value" line.
func (a *App) detail(indent int, label, value string) {
	a.printf("%s%-17s: %s\n", strings.Repeat(" ", indent), label, value)
}

// reportVerdict prints v and turns anything short of OK into an error that
// carries the exit code.
func (a *App) reportVerdict(v services.Verdict) error {
	switch v.Reason {
	case services.ReasonOK:
		a.successf("✓ Certificate VERIFIED")
		a.detail(2, "ID", v.CertificateID)
		for _, k := range []struct{ key, label string }{
			{"recipient_name", "Recipient"},
			{"course_name", "Course"},
			{"issue_date", "Issue Date"},
			{"issuer", "Issuer"},
		} {
			if val, ok := v.Excerpt[k.key]; ok {
				a.detail(2, k.label, val)
			}
		}
		return nil

	case services.ReasonMetadataOnlyPresent:
		a.warnf("! Certificate contains embedded credential checksum")
		a.detail(2, "ID", v.CertificateID)
		a.printf("  Note: Full verification requires access to a record store\n")
		return errUnconfirmed
	}

	a.failuref(a.out, "✗ %s (%s)", v.Message(), v.Reason)
	if v.CertificateID != "" {
		a.detail(2, "ID", v.CertificateID)
	}
	return errNotVerified
}
