package cli

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/google/subcommands"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/export"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

type balancesCmd struct {
	*app
	currency string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "display what every participant paid, owes and is owed" }
func (*balancesCmd) Usage() string {
	return `splitctl [-file <export.json>] balances [-c <currency>]

  Aggregates the expenses of the export into one balance table per currency.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Only report this currency.")
}

func (c *balancesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	doc, err := c.decode()
	if err != nil {
		return c.fail(err)
	}
	if err := c.printMarkdown(BalancesMarkdown(doc, c.currency)); err != nil {
		return c.fail(err)
	}
	return subcommands.ExitSuccess
}

type settleCmd struct {
	*app
	currency string
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "suggest the reimbursements that settle the group" }
func (*settleCmd) Usage() string {
	return `splitctl [-file <export.json>] settle [-c <currency>]

  Lists, per currency, who should pay whom so that every balance returns to zero.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Only report this currency.")
}

func (c *settleCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	doc, err := c.decode()
	if err != nil {
		return c.fail(err)
	}
	if err := c.printMarkdown(SettleMarkdown(doc, c.currency)); err != nil {
		return c.fail(err)
	}
	return subcommands.ExitSuccess
}

type totalsCmd struct {
	*app
	participant string
}

func (*totalsCmd) Name() string     { return "totals" }
func (*totalsCmd) Synopsis() string { return "display group spending and one participant's part of it" }
func (*totalsCmd) Usage() string {
	return `splitctl [-file <export.json>] totals [-p <name>]

  Sums the spending of the group per currency. Income reduces it and
  reimbursements are left out. With -p, also shows what that participant
  advanced and their share.
`
}

func (c *totalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.participant, "p", "", "Participant name to report on.")
}

func (c *totalsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	doc, err := c.decode()
	if err != nil {
		return c.fail(err)
	}
	md, err := TotalsMarkdown(doc, c.participant)
	if err != nil {
		return c.fail(err)
	}
	if err := c.printMarkdown(md); err != nil {
		return c.fail(err)
	}
	return subcommands.ExitSuccess
}

// currencies returns the currencies to report: only is kept when set.
func currencies(doc *export.Document, only string) []string {
	all := doc.Currencies()
	if only == "" {
		return all
	}
	return slices.DeleteFunc(all, func(c string) bool { return c != only })
}

// BalancesMarkdown renders one table per currency, participants in group order.
func BalancesMarkdown(doc *export.Document, only string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Name)

	cs := currencies(doc, only)
	if len(cs) == 0 {
		b.WriteString("No expenses.\n")
		return b.String()
	}
	for _, cur := range cs {
		balances := calculator.Aggregate(doc.ByCurrency(cur))
		fmt.Fprintf(&b, "## Balances (%s)\n\n", cur)
		b.WriteString("| Participant | Paid | Owed | Net |\n")
		b.WriteString("|:---|---:|---:|---:|\n")
		for _, p := range doc.Participants {
			bal := balances[p.ID]
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", p.Name,
				money.Format(cur, bal.Paid), money.Format(cur, bal.Owed), money.Format(cur, bal.Net))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SettleMarkdown renders the suggested reimbursements per currency.
func SettleMarkdown(doc *export.Document, only string) string {
	group := doc.Group()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Name)
	for _, cur := range currencies(doc, only) {
		fmt.Fprintf(&b, "## Reimbursements (%s)\n\n", cur)
		reimbursements := calculator.Settle(calculator.Aggregate(doc.ByCurrency(cur)))
		if len(reimbursements) == 0 {
			b.WriteString("All settled up.\n\n")
			continue
		}
		for _, r := range reimbursements {
			fmt.Fprintf(&b, "- **%s** pays **%s** %s\n", name(group, r.From), name(group, r.To), money.Format(cur, r.Amount))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TotalsMarkdown renders the spending totals per currency. participant is a
// display name; an empty name reports the group only.
func TotalsMarkdown(doc *export.Document, participant string) (string, error) {
	var participantID string
	if participant != "" {
		i := slices.IndexFunc(doc.Participants, func(p export.Participant) bool {
			return strings.EqualFold(p.Name, participant)
		})
		if i < 0 {
			return "", fmt.Errorf("no participant named %q in %s", participant, doc.Name)
		}
		participantID = doc.Participants[i].ID
		participant = doc.Participants[i].Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Name)
	if participantID == "" {
		b.WriteString("| Currency | Group spending |\n|:---|---:|\n")
	} else {
		fmt.Fprintf(&b, "| Currency | Group spending | Paid by %s | %s's share |\n|:---|---:|---:|---:|\n", participant, participant)
	}
	for _, cur := range doc.Currencies() {
		rows := doc.ByCurrency(cur)
		fmt.Fprintf(&b, "| %s | %s |", cur, money.Format(cur, calculator.TotalGroupSpending(rows)))
		if participantID != "" {
			fmt.Fprintf(&b, " %s | %s |",
				money.Format(cur, calculator.TotalPaidBy(participantID, rows)),
				money.Format(cur, calculator.TotalShare(participantID, rows)))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func name(group *models.Group, id string) string {
	return cmp.Or(group.ParticipantName(id), id)
}
