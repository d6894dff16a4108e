package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowtree/pkg/flowtree"
	"github.com/randalmurphal/flowtree/pkg/flowtree/catalog"
	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

type demoFlags struct {
	runID       string
	amount      int
	vip         bool
	failGateway bool
	failBackup  bool
}

func newDemoCmd(root *rootFlags) *cobra.Command {
	flags := &demoFlags{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a sample checkout flow and archive its report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, root, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.runID, "run-id", "", "run ID (generated when empty)")
	f.IntVar(&flags.amount, "amount", 120, "order amount; zero or less fails validation")
	f.BoolVar(&flags.vip, "vip", false, "ship the order express")
	f.BoolVar(&flags.failGateway, "fail-gateway", false, "make every payment gateway call fail")
	f.BoolVar(&flags.failBackup, "fail-backup", false, "make the backup payment path fail too")
	return cmd
}

func runDemo(cmd *cobra.Command, root *rootFlags, flags *demoFlags) error {
	settings, err := root.settings()
	if err != nil {
		return err
	}
	opts, err := flowtree.OptionsFromSettings(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if flags.runID != "" {
		opts = append(opts, flowtree.WithRunID(flags.runID))
	}

	store, err := root.openStore()
	switch {
	case err == nil:
		defer store.Close()
		opts = append(opts, flowtree.WithArchive(store))
	case errors.Is(err, errNoArchive):
		fmt.Fprintln(cmd.ErrOrStderr(), "no archive configured, the report will not be kept")
	default:
		return err
	}

	flow, err := checkoutFlow(flags)
	if err != nil {
		return fmt.Errorf("build checkout flow: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	order := flowtree.NewContextOf(
		flowtree.P("amount", flags.amount),
		flowtree.P("vip", flags.vip),
	)
	report, err := flowtree.Run(ctx, flow, order, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", report.RunID(), report.Status())
	fmt.Fprint(out, report.Tree())
	if trail := report.Trail(); len(trail) > 0 {
		fmt.Fprintln(out, "\nTrail:")
		fmt.Fprint(out, flowtree.FormatTrail(trail))
	}
	return nil
}

// checkoutFlow assembles the demo tree:
//
//	checkout (sequential, finally audit)
//	├── validate
//	├── payment (recoverable: technical)
//	│   ├── charge (retryable: 3 attempts)
//	│   │   └── call-gateway
//	│   └── charge-backup
//	├── shipping (switch on vip)
//	└── notify (parallel, from the catalog)
func checkoutFlow(flags *demoFlags) (flowtree.Flow[*flowtree.Context], error) {
	templates, err := notifyTemplates()
	if err != nil {
		return nil, err
	}

	validate, err := flowtree.NewStep(flowtree.StepConfig[*flowtree.Context]{
		Name: "validate",
		Func: func(_ context.Context, c *flowtree.Context, _ flowtree.Metadata) (flowtree.Report[*flowtree.Context], error) {
			if flowtree.ValueOr(c, "amount", 0) <= 0 {
				return flowtree.Failure(c, fault.Functionalf("amount must be positive")), nil
			}
			return flowtree.Success(c), nil
		},
	})
	if err != nil {
		return nil, err
	}

	callGateway, err := flowtree.NewStep(flowtree.StepConfig[*flowtree.Context]{
		Name: "call-gateway",
		Func: func(ctx context.Context, c *flowtree.Context, _ flowtree.Metadata) (flowtree.Report[*flowtree.Context], error) {
			if flags.failGateway || flowtree.Attempt(ctx) < 2 {
				return flowtree.Failure(c, fault.Technicalf("gateway timeout on attempt %d", flowtree.Attempt(ctx))), nil
			}
			c.Set("charged_by", "gateway")
			return flowtree.Success(c), nil
		},
	})
	if err != nil {
		return nil, err
	}
	charge, err := flowtree.NewRetryable(flowtree.RetryableConfig[*flowtree.Context]{
		Name:        "charge",
		Flow:        callGateway,
		Filter:      fault.RecoverTechnical,
		MaxAttempts: 3,
		Backoff:     flowtree.ExponentialBackoff(10*time.Millisecond, 50*time.Millisecond),
	})
	if err != nil {
		return nil, err
	}

	backup, err := flowtree.NewStep(flowtree.StepConfig[*flowtree.Context]{
		Name: "charge-backup",
		Func: func(_ context.Context, c *flowtree.Context, _ flowtree.Metadata) (flowtree.Report[*flowtree.Context], error) {
			if flags.failBackup {
				return flowtree.Failure(c, fault.Technicalf("backup gateway unavailable")), nil
			}
			c.Set("charged_by", "backup")
			return flowtree.Success(c), nil
		},
	})
	if err != nil {
		return nil, err
	}
	payment, err := flowtree.NewRecoverable(flowtree.RecoverableConfig[*flowtree.Context]{
		Name:    "payment",
		Try:     charge,
		Recover: backup,
		Filter:  fault.RecoverTechnical,
	})
	if err != nil {
		return nil, err
	}

	method, err := flowtree.ExprKey[*flowtree.Context, string](`vip ? "express" : "ground"`)
	if err != nil {
		return nil, err
	}
	shipping, err := flowtree.NewSwitch(flowtree.SwitchConfig[*flowtree.Context, string]{
		Name: "shipping",
		Key:  method,
		Cases: []flowtree.Case[*flowtree.Context, string]{
			{Key: "express", Flow: setter("ship-express", "shipping", "express")},
			{Key: "ground", Flow: setter("ship-ground", "shipping", "ground")},
		},
		Default: flowtree.Must(flowtree.NewNoOp[*flowtree.Context]("ship-none")),
	})
	if err != nil {
		return nil, err
	}

	notify, err := templates.Instantiate("notify", "notify-customer")
	if err != nil {
		return nil, err
	}

	audit, err := flowtree.NewStep(flowtree.StepConfig[*flowtree.Context]{
		Name: "audit",
		Func: flowtree.SimpleStep(func(ctx context.Context, c *flowtree.Context) error {
			flowtree.Logger(ctx).Info("order audited", "charged_by", flowtree.ValueOr(c, "charged_by", "none"))
			return nil
		}),
	})
	if err != nil {
		return nil, err
	}

	return flowtree.NewSequential(flowtree.SequentialConfig[*flowtree.Context]{
		Name:    "checkout",
		Steps:   []flowtree.Flow[*flowtree.Context]{validate, payment, shipping, notify},
		Finally: audit,
	})
}

// notifyTemplates registers the notification fan-out as a reusable template.
func notifyTemplates() (*catalog.Catalog[*flowtree.Context], error) {
	notify, err := flowtree.NewParallel(flowtree.ParallelConfig[*flowtree.Context]{
		Name: "notify",
		Branches: []flowtree.Flow[*flowtree.Context]{
			setter("email", "email_sent", true),
			setter("sms", "sms_sent", true),
		},
	})
	if err != nil {
		return nil, err
	}
	cat := catalog.New[*flowtree.Context]()
	if err := cat.Register("notify", notify); err != nil {
		return nil, err
	}
	return cat, nil
}

func setter(name, key string, value any) flowtree.Flow[*flowtree.Context] {
	return flowtree.Must(flowtree.NewStep(flowtree.StepConfig[*flowtree.Context]{
		Name: name,
		Func: flowtree.SimpleStep(func(_ context.Context, c *flowtree.Context) error {
			c.Set(key, value)
			return nil
		}),
	}))
}
