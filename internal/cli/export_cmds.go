package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"github.com/google/subcommands"

	"github.com/mmynk/splitledger/internal/export"
	"github.com/mmynk/splitledger/internal/service"
)

type xlsxCmd struct {
	*app
	output string
}

func (*xlsxCmd) Name() string     { return "xlsx" }
func (*xlsxCmd) Synopsis() string { return "convert an export to a spreadsheet" }
func (*xlsxCmd) Usage() string {
	return `splitctl [-file <export.json>] xlsx [-o <file.xlsx>]

  Writes the expenses, balances and reimbursements of the export as an
  Excel workbook.
`
}

func (c *xlsxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file (defaults to a dated name in the current directory).")
}

func (c *xlsxCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	doc, err := c.decode()
	if err != nil {
		return c.fail(err)
	}
	output := c.output
	if output == "" {
		output = export.Filename(time.Now(), "xlsx")
	}
	if err := writeFile(output, func(w io.Writer) error { return export.WriteXLSX(w, doc) }); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Wrote %s\n", output)
	return subcommands.ExitSuccess
}

type fetchCmd struct {
	*app
	server  string
	groupID string
	timeout time.Duration
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download a group export from a server" }
func (*fetchCmd) Usage() string {
	return `splitctl [-file <export.json>] fetch -g <group id> [-server <url>]

  Calls ExportGroup on a running server and saves the document to -file,
  ready for the report commands.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.server, "server", "http://localhost:8080", "Base URL of the splitledger server.")
	f.StringVar(&c.groupID, "g", "", "ID of the group to export.")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "Request timeout.")
}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.groupID == "" {
		fmt.Fprintln(c.stderr, "fetch: -g is required")
		return subcommands.ExitUsageError
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := service.NewGroupServiceClient(http.DefaultClient, c.server)
	resp, err := client.ExportGroup(ctx, connect.NewRequest(&service.ExportGroupRequest{GroupID: c.groupID}))
	if err != nil {
		return c.fail(fmt.Errorf("failed to export group: %w", err))
	}

	doc := resp.Msg.Export
	if err := writeFile(c.file, func(w io.Writer) error { return export.Encode(w, doc) }); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Saved %s (%d expenses) to %s\n", doc.Name, len(doc.Expenses), c.file)
	return subcommands.ExitSuccess
}

// writeFile creates name and fills it with write. The file is removed when
// write fails.
func writeFile(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
