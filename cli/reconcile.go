package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/junaidrashid-git/storefront/reconcile"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type ReconcileOptions struct {
	*RootOptions
	Schedule  string
	OlderThan time.Duration
	Limit     int
	Once      bool
}

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Finalize paid orders whose webhook never arrived",
	}

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Host the reconcile workflow and activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcileWorker(opts)
		},
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Schedule the reconcile workflow (or run it once with --once)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startReconcile(cmd, opts)
		},
	}
	startCmd.Flags().StringVar(&opts.Schedule, "schedule", reconcile.DefaultSchedule, "cron schedule")
	startCmd.Flags().DurationVar(&opts.OlderThan, "older-than", 30*time.Minute, "only check orders pending for longer than this")
	startCmd.Flags().IntVar(&opts.Limit, "limit", 100, "orders per run")
	startCmd.Flags().BoolVar(&opts.Once, "once", false, "run once now and wait for the result")

	cmd.AddCommand(workerCmd, startCmd)
	return cmd
}

func (o *ReconcileOptions) dial() (temporalclient.Client, error) {
	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  o.Config.Temporal.HostPort,
		Namespace: o.Config.Temporal.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}

func (o *ReconcileOptions) taskQueue() string {
	if q := o.Config.Temporal.TaskQueue; q != "" {
		return q
	}
	return reconcile.DefaultTaskQueue
}

func runReconcileWorker(opts *ReconcileOptions) error {
	s, err := opts.openStore()
	if err != nil {
		return err
	}
	c, err := opts.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := opts.Config
	gateway := payment.NewPaystack(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL)
	acts := reconcile.NewActivities(s, gateway, payment.NewConfirmer(s, notify.Discard{}))

	w := reconcile.NewWorker(c, opts.taskQueue(), acts)
	log.Println("👷 Reconcile worker starting on task queue:", opts.taskQueue())
	return w.Run(worker.InterruptCh())
}

func startReconcile(cmd *cobra.Command, opts *ReconcileOptions) error {
	c, err := opts.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	schedule := opts.Schedule
	if opts.Once {
		schedule = ""
	}
	in := reconcile.Input{OlderThan: opts.OlderThan, Limit: opts.Limit}
	run, err := reconcile.Start(cmd.Context(), c, opts.taskQueue(), schedule, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started workflow - WorkflowID: %s, RunID: %s\n", run.GetID(), run.GetRunID())
	if !opts.Once {
		return nil
	}

	var res reconcile.Result
	if err := run.Get(cmd.Context(), &res); err != nil {
		return fmt.Errorf("reconcile workflow failed: %w", err)
	}
	if opts.Format == "json" {
		return opts.printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ checked %d, finalized %d, unpaid %d, failed %d\n",
		res.Checked, len(res.Finalized), res.Unpaid, res.Failed)
	return nil
}
