package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"crewpay/models"
	"crewpay/repository"
	"crewpay/service"

	"github.com/google/uuid"
)

const defaultBatchListLimit = 20

func (a *app) listRules(ctx context.Context) error {
	rules := a.catalog.Load(ctx)

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tMODEL\tPARAMETERS\tSOURCE")
	for _, rule := range rules.Rules() {
		source := "store"
		if rule.IsBuiltIn() {
			source = "default"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rule.PositionKey, rule.Label(), rule.Model.Kind(), formatParams(rule.Model.Parameters()), source)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if rules.FromDefaults() {
		fmt.Fprintln(a.out, "\nNo stored rules; showing built-in defaults. Run \"crewpay rules seed\" to store them.")
	}
	return nil
}

func (a *app) quote(ctx context.Context, params []string) error {
	if len(params) == 0 {
		return fmt.Errorf("usage: crewpay rules quote <position_key> [key=value ...]")
	}

	role := models.NormalizeRole(params[0])
	compCtx, override, err := parseQuoteArgs(params[1:])
	if err != nil {
		return err
	}

	rule := a.catalog.GetRule(ctx, role)
	result := service.CalculateCompensation(rule, override, compCtx)

	fmt.Fprintf(a.out, "%s: $%.2f\n", a.catalog.LabelFor(ctx, role), result.Total)
	fmt.Fprintf(a.out, "  %s\n", result.Breakdown)
	if len(result.EffectiveParameters) > 0 {
		fmt.Fprintf(a.out, "  parameters: %s\n", formatParams(result.EffectiveParameters))
	}
	if result.NeedsRevenue {
		fmt.Fprintln(a.out, "  warning: revenue not set, percentage pay is $0 until it is")
	}
	return nil
}

func (a *app) seedRules(ctx context.Context) error {
	rules := a.defaults.DefaultRules()
	if err := repository.SeedPayRateRules(ctx, a.db, rules); err != nil {
		return fmt.Errorf("failed to seed pay rate rules: %w", err)
	}
	if a.cache != nil {
		a.cache.Invalidate(ctx)
	}
	fmt.Fprintf(a.out, "Seeded %d pay rate rules\n", len(rules))
	return nil
}

func (a *app) showRoster(ctx context.Context, params []string) error {
	eventID, err := parseIDArg(params, "event_id")
	if err != nil {
		return err
	}

	assignments, err := a.roster.ListAssignments(ctx, eventID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		fmt.Fprintln(a.out, "No assignments")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tSTAFF\tSTATUS\tPAY\tPAID\tBATCH")
	for _, asg := range assignments {
		batch := "-"
		if asg.PayrollBatchID != nil {
			batch = asg.PayrollBatchID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%t\t%s\n",
			asg.Role, asg.StaffID, asg.Status, asg.Payout(), asg.IsPaid, batch)
	}
	return w.Flush()
}

func (a *app) syncRoster(ctx context.Context, params []string) error {
	eventID, err := parseIDArg(params, "event_id")
	if err != nil {
		return err
	}
	selection, err := parseSelection(params[1:])
	if err != nil {
		return err
	}

	report, err := a.roster.SyncPositions(ctx, eventID, selection)
	if err != nil {
		return err
	}
	a.metrics.RecordSyncReport(ctx, report)

	fmt.Fprintln(a.out, report.Summary())
	for _, s := range report.Skipped {
		fmt.Fprintf(a.out, "  %s: %s (%s)\n", s.Role, s.Reason, s.Detail)
	}
	return nil
}

func (a *app) createBatch(ctx context.Context, params []string) error {
	if len(params) == 0 {
		return fmt.Errorf("usage: crewpay payroll create <YYYY-MM-DD|today>")
	}
	anchor, err := parseDate(params[0], time.Now())
	if err != nil {
		return err
	}

	batchID, err := a.payroll.CreateBatch(ctx, anchor)
	if err != nil {
		return err
	}
	return a.printBatch(ctx, batchID, false)
}

func (a *app) processBatch(ctx context.Context, params []string) error {
	batchID, err := parseIDArg(params, "batch_id")
	if err != nil {
		return err
	}
	if err := a.payroll.ProcessBatch(ctx, batchID); err != nil {
		return err
	}
	return a.printBatch(ctx, batchID, false)
}

func (a *app) showBatch(ctx context.Context, params []string) error {
	batchID, err := parseIDArg(params, "batch_id")
	if err != nil {
		return err
	}
	return a.printBatch(ctx, batchID, true)
}

func (a *app) printBatch(ctx context.Context, batchID uuid.UUID, withAssignments bool) error {
	batch, assignments, err := a.payroll.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Batch %s (%s)\n", batch.ID, batch.Status)
	fmt.Fprintf(a.out, "  period:    %s to %s\n", batch.PeriodStart.Format(dateLayout), batch.PeriodEnd.Format(dateLayout))
	fmt.Fprintf(a.out, "  payment:   %s\n", batch.PaymentDate.Format(dateLayout))
	fmt.Fprintf(a.out, "  total:     $%.2f across %d assignments\n", batch.TotalAmount, batch.AssignmentCount)
	fmt.Fprintf(a.out, "  reference: %s\n", batch.PaymentReference)
	if batch.PaidAt != nil {
		fmt.Fprintf(a.out, "  paid at:   %s\n", batch.PaidAt.Format(time.RFC3339))
	}

	if !withAssignments {
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nASSIGNMENT\tEVENT\tROLE\tSTAFF\tPAY")
	for _, asg := range assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t$%.2f\n", asg.ID, asg.EventID, asg.Role, asg.StaffID, asg.Payout())
	}
	return w.Flush()
}

func (a *app) listBatches(ctx context.Context, params []string) error {
	limit := defaultBatchListLimit
	if len(params) > 0 {
		n, err := strconv.Atoi(params[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit %q", params[0])
		}
		limit = n
	}

	batches, err := a.payroll.ListBatches(ctx, limit)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Fprintln(a.out, "No payroll batches")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tPERIOD\tSTATUS\tASSIGNMENTS\tTOTAL")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.2f\n",
			b.ID, b.PeriodStart.Format(dateLayout), b.Status, b.AssignmentCount, b.TotalAmount)
	}
	return w.Flush()
}

func parseIDArg(params []string, name string) (uuid.UUID, error) {
	if len(params) == 0 {
		return uuid.Nil, fmt.Errorf("missing %s", name)
	}
	id, err := uuid.Parse(params[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, params[0], err)
	}
	return id, nil
}

// formatParams renders parameters as sorted key=value pairs
func formatParams(params map[string]float64) string {
	parts := make([]string, 0, len(params))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		parts = append(parts, k+"="+strconv.FormatFloat(params[k], 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}
