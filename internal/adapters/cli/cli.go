package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"glass-shop/internal/app"
	"glass-shop/internal/auth"
	"glass-shop/internal/core"
)

// ErrUsage is returned for an unknown subcommand or missing arguments.
var ErrUsage = errors.New("usage: glassctl -user <username> stock [glass_type] | pending | dashboard | pdf <quotation|invoice|basic-invoice|challan> <id> <file>")

// Run executes a one-shot command as the given user and writes the result to out.
// args is the remaining command line; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, username string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	sess, err := svc.ResolveSession(ctx, username)
	if err != nil {
		return fmt.Errorf("resolve user %q: %w", username, err)
	}

	switch args[0] {
	case "stock", "s":
		filter := core.StockFilter{}
		if len(args) > 1 {
			filter.GlassType = args[1]
		}
		rows, err := svc.ListStock(ctx, *sess, filter)
		if err != nil {
			return err
		}
		printStock(out, rows)

	case "pending", "p":
		entries, err := svc.ListPriceMaster(ctx, *sess, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d glass types waiting for a price\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(out, "  #%-5d %-20s %6smm\n", e.ID, e.GlassType, e.Thickness.String())
		}

	case "dashboard", "d":
		if !auth.HasRole(sess.Role, auth.RoleAdmin) {
			return fmt.Errorf("dashboard is limited to admins: %w", core.ErrForbidden)
		}
		d, err := svc.GetDashboard(ctx, *sess)
		if err != nil {
			return err
		}
		printDashboard(out, d)

	case "pdf":
		if len(args) < 4 {
			return ErrUsage
		}
		id, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[2], ErrUsage)
		}
		var doc *app.Document
		if args[1] == "quotation" {
			doc, err = svc.QuotationDocument(ctx, *sess, id)
		} else {
			doc, err = svc.InvoiceDocument(ctx, *sess, id, app.DocumentKind(args[1]))
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[3], doc.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", args[3], err)
		}
		fmt.Fprintf(out, "wrote %s (%d bytes)\n", args[3], len(doc.Content))

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
	return nil
}

func printStock(out io.Writer, rows []core.Stock) {
	fmt.Fprintln(out, strings.Repeat("=", 72))
	fmt.Fprintf(out, "  %-5s %-18s %6s %-17s %6s %-9s\n", "STAND", "GLASS", "THK", "SIZE", "QTY", "STATUS")
	fmt.Fprintln(out, strings.Repeat("-", 72))
	total := 0
	for _, s := range rows {
		size := s.Height.String() + " x " + s.Width.String() + " " + strings.ToLower(s.Unit)
		fmt.Fprintf(out, "  %-5d %-18s %6s %-17s %6d %-9s\n", s.StandNo, s.GlassType, s.Thickness.String(), size, s.Quantity, s.Status)
		total += s.Quantity
	}
	fmt.Fprintln(out, strings.Repeat("=", 72))
	fmt.Fprintf(out, "  %d rows, %d pieces\n", len(rows), total)
}

func printDashboard(out io.Writer, d *core.Dashboard) {
	fmt.Fprintln(out, "QUOTATIONS")
	for _, st := range []core.QuotationStatus{core.QuotationDraft, core.QuotationConfirmed, core.QuotationRejected} {
		fmt.Fprintf(out, "  %-10s %d\n", st, d.Quotations[st])
	}
	fmt.Fprintln(out, "INVOICES")
	for _, st := range []core.PaymentStatus{core.PaymentDue, core.PaymentPartial, core.PaymentPaid} {
		fmt.Fprintf(out, "  %-10s %d\n", st, d.InvoicesByStatus[st])
	}
	fmt.Fprintf(out, "  total %s  paid %s  due %s\n",
		d.Invoices.GrandTotal.StringFixed(2), d.Invoices.Paid.StringFixed(2), d.Invoices.Due.StringFixed(2))
	fmt.Fprintf(out, "PENDING PRICES  %d\n", d.PendingPriceEntries)
}
