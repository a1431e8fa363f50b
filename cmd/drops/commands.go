package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
)

func newScheduleCmd(a *app) *cobra.Command {
	var (
		owner, order, plan, frequency, currency, start string
		total                                          int64
		drops                                          int
		products                                       []string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Create a subscription document with a full drop schedule",
		RunE: func(_ *cobra.Command, _ []string) error {
			now, err := a.clock()
			if err != nil {
				return err
			}

			params := subscription.NewParams{
				PaymentPlan: subscription.PaymentPlan(plan),
				Frequency:   subscription.Frequency(frequency),
				TotalAmount: types.Money{Amount: total, Currency: currency},
				TotalDrops:  drops,
			}
			if params.Owner, err = parseOr(owner, id.ParseAccountID, id.NewAccountID); err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}
			if params.Order, err = parseOr(order, id.ParseOrderID, id.NewOrderID); err != nil {
				return fmt.Errorf("invalid --order: %w", err)
			}
			if start != "" {
				if params.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}
			for _, p := range products {
				pid, err := id.ParseProductID(p)
				if err != nil {
					return fmt.Errorf("invalid --product: %w", err)
				}
				params.Products = append(params.Products, pid)
			}

			sub, err := subscription.New(params, now)
			if err != nil {
				return err
			}
			if err := subscription.Validate(sub); err != nil {
				return err
			}

			a.logger.Debug("schedule built",
				"subscription_id", sub.ID.String(),
				"total_drops", sub.TotalDrops,
				"drop_amount", sub.DropAmount.String(),
			)
			return a.write(sub)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "account id (generated when empty)")
	cmd.Flags().StringVar(&order, "order", "", "order id (generated when empty)")
	cmd.Flags().StringVar(&plan, "plan", string(subscription.PlanPaySmallSmall), "payment plan")
	cmd.Flags().StringVar(&frequency, "frequency", string(subscription.FrequencyWeekly), "daily, weekly, biweekly or monthly")
	cmd.Flags().StringVar(&currency, "currency", a.cfg.Currency, "ISO currency code")
	cmd.Flags().StringVar(&start, "start", "", "first drop date (YYYY-MM-DD), defaults to --now")
	cmd.Flags().Int64Var(&total, "total", 0, "total amount in minor units")
	cmd.Flags().IntVar(&drops, "drops", 0, "number of drops")
	cmd.Flags().StringSliceVar(&products, "product", nil, "product id delivered with the final drop")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("drops")
	return cmd
}

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute the derived fields of a subscription document",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.step(func(*subscription.Subscription, time.Time) error { return nil })
		},
	}
}

func newTransitionCmd(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Request a status change (active, paused, cancelled)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.step(func(sub *subscription.Subscription, now time.Time) error {
				from := sub.Status
				if err := subscription.RequestStatusChange(sub, subscription.Status(to), now); err != nil {
					return err
				}
				a.logger.Info("status changed",
					"subscription_id", sub.ID.String(),
					"from", string(from),
					"to", to,
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "target status")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newPayCmd(a *app) *cobra.Command {
	var (
		ref       string
		paymentID string
		amount    int64
		dropIndex int
		paidAt    string
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Settle one drop and reconcile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.step(func(sub *subscription.Subscription, now time.Time) error {
				st := subscription.Settlement{
					Amount:         types.Money{Amount: amount, Currency: sub.TotalAmount.Currency},
					TransactionRef: ref,
					PaidAt:         now,
				}
				if paymentID != "" {
					pid, err := id.ParsePaymentID(paymentID)
					if err != nil {
						return fmt.Errorf("invalid --payment-id: %w", err)
					}
					st.PaymentID = pid
				}
				if cmd.Flags().Changed("drop-index") {
					st.DropIndex = &dropIndex
				}
				if paidAt != "" {
					t, err := time.Parse(time.RFC3339, paidAt)
					if err != nil {
						return fmt.Errorf("invalid --paid-at: %w", err)
					}
					st.PaidAt = t
				}

				idx, err := subscription.ApplySettlement(sub, st)
				if err != nil {
					return err
				}
				a.logger.Info("drop paid",
					"subscription_id", sub.ID.String(),
					"drop_index", idx,
					"transaction_ref", sub.DropSchedule[idx].TransactionRef,
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "payment processor transaction reference")
	cmd.Flags().StringVar(&paymentID, "payment-id", "", "drops payment id (pay_...), used as reference when --ref is empty")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount paid in minor units")
	cmd.Flags().IntVar(&dropIndex, "drop-index", 0, "zero-based drop to settle, defaults to the first unpaid")
	cmd.Flags().StringVar(&paidAt, "paid-at", "", "payment time (RFC 3339), defaults to --now")
	cmd.MarkFlagsOneRequired("ref", "payment-id")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// step loads a document, applies fn, reconciles and writes the result.
func (a *app) step(fn func(*subscription.Subscription, time.Time) error) error {
	now, err := a.clock()
	if err != nil {
		return err
	}
	sub, err := a.load()
	if err != nil {
		return err
	}
	if err := fn(sub, now); err != nil {
		return err
	}
	return a.write(subscription.Reconcile(sub, now))
}

func parseOr(s string, parse func(string) (id.ID, error), gen func() id.ID) (id.ID, error) {
	if s == "" {
		return gen(), nil
	}
	return parse(s)
}
