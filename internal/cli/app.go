// Package cli implements splitctl, which reads a group export and prints
// balances, reimbursements and totals without a server.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/mmynk/splitledger/internal/export"
)

// app holds the top level flags shared by every subcommand.
// As a CLI application it lives for one command only.
type app struct {
	file   string
	plain  bool
	stdout io.Writer
	stderr io.Writer
}

// Main parses args (without the program name), runs the selected subcommand
// and returns its exit status.
func Main(ctx context.Context, name string, args []string, stdout, stderr io.Writer) subcommands.ExitStatus {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	a := &app{stdout: stdout, stderr: stderr}
	fs.StringVar(&a.file, "file", "export.json", "Path to the group export (JSON) to read")
	fs.BoolVar(&a.plain, "plain", false, "Print raw markdown instead of rendering it for the terminal")

	c := subcommands.NewCommander(fs, name)
	c.Output = stdout
	c.Error = stderr
	register(c, a)

	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}
	return c.Execute(ctx)
}

// register adds the subcommands, grouped the way help lists them.
func register(c *subcommands.Commander, a *app) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&balancesCmd{app: a}, "reports")
	c.Register(&settleCmd{app: a}, "reports")
	c.Register(&totalsCmd{app: a}, "reports")

	c.Register(&xlsxCmd{app: a}, "export")
	c.Register(&fetchCmd{app: a}, "export")
}

// decode reads the export named by -file.
func (a *app) decode() (*export.Document, error) {
	f, err := os.Open(a.file)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()
	return export.Decode(f)
}

// printMarkdown renders md for the terminal, or writes it as is with -plain.
func (a *app) printMarkdown(md string) error {
	if a.plain {
		_, err := io.WriteString(a.stdout, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}

// fail prints err and returns ExitFailure.
func (a *app) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(a.stderr, err)
	return subcommands.ExitFailure
}
