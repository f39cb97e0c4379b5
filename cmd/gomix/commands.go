package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gomix/adapters/report"
	"gomix/adapters/tabular"
	"gomix/app"
	"gomix/domain/attribution"
	"gomix/internal"
	"gomix/internal/config"
	"gomix/internal/demodata"
)

type services struct {
	cfg         *config.Config
	attribution *app.AttributionService
	experiments *app.ExperimentService
}

func loadServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(cfg.Log.Level)
	return &services{
		cfg: cfg,
		attribution: app.NewAttributionService(tabular.NewReader(), app.AttributionOptions{
			Defaults:    attribution.Params{Decay: cfg.Model.AdstockDecay, Saturation: cfg.Model.Saturation},
			SweepDecays: cfg.Model.SweepDecays,
			Logger:      logger,
		}),
		experiments: app.NewExperimentService(app.ExperimentDefaults{
			Alpha: cfg.Experiment.Alpha,
			Power: cfg.Experiment.Power,
			GeoCV: cfg.Experiment.GeoCV,
		}, logger),
	}, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gomix",
		Short:         "Marketing mix attribution and experiment design",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newAttributeCmd(),
		newSweepCmd(),
		newABSizeCmd(),
		newGeoMDECmd(),
		newDemoCmd(),
	)
	return rootCmd
}

func newAttributeCmd() *cobra.Command {
	var decay float64
	var saturation, asJSON bool
	var reportFormat string

	cmd := &cobra.Command{
		Use:   "attribute [file]",
		Short: "Fit the attribution model to a CSV or Excel file",
		Long: `Detect date, target and spend columns, fit the adstock/saturation regression
and print channel ROI.

Example: gomix attribute weekly.csv --decay 0.4 --saturation=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			params := svc.attribution.Defaults()
			if cmd.Flags().Changed("decay") {
				params.Decay = decay
			}
			if cmd.Flags().Changed("saturation") {
				params.Saturation = saturation
			}

			res, err := svc.attribution.AnalyzeFile(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, res)
			case reportFormat == "md":
				_, err := io.WriteString(out, report.NewRenderer().Markdown(*res))
				return err
			case reportFormat == "html":
				body, err := report.NewRenderer().HTML(*res)
				if err != nil {
					return err
				}
				_, err = out.Write(body)
				return err
			case reportFormat != "":
				return fmt.Errorf("unsupported report format %q (md or html)", reportFormat)
			}
			printResult(out, res)
			return nil
		},
	}

	cmd.Flags().Float64Var(&decay, "decay", 0.5, "Adstock decay in [0,1) (default from MMM_ADSTOCK_DECAY)")
	cmd.Flags().BoolVar(&saturation, "saturation", true, "Apply log1p saturation (default from MMM_SATURATION)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().StringVar(&reportFormat, "report", "", "Print a report instead: md|html")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var decays string
	var saturation, asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep [file]",
		Short: "Compare fit quality across adstock decays",
		Long: `Fit the model once per decay and report R² and adjusted R².

Example: gomix sweep weekly.csv --decays 0,0.2,0.4,0.6,0.8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			var grid []float64
			if decays != "" {
				if grid, err = config.ParseDecays(decays); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("saturation") {
				saturation = svc.attribution.Defaults().Saturation
			}

			ds, err := tabular.NewReader().ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := svc.attribution.Sweep(cmd.Context(), ds, grid, saturation)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DECAY\tR²\tADJ R²\tROWS\t")
			for _, p := range res.Points {
				marker := ""
				if p.Decay == res.BestDecay {
					marker = "best"
				}
				fmt.Fprintf(tw, "%.2f\t%.4f\t%.4f\t%d\t%s\n", p.Decay, p.R2, p.AdjR2, p.Rows, marker)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&decays, "decays", "", "Comma separated decays (default from MMM_SWEEP_DECAYS)")
	cmd.Flags().BoolVar(&saturation, "saturation", true, "Apply log1p saturation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newABSizeCmd() *cobra.Command {
	var baseline, mdePct, alpha, power, std float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ab-size",
		Short: "Sample size per arm for an A/B test",
		Long: `Compute the per-group sample size to detect a relative lift.

Without --std the metric is treated as a proportion.

Example: gomix ab-size --baseline 0.05 --mde-pct 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			req := svc.experiments.SampleSizeRequest(baseline, mdePct)
			if cmd.Flags().Changed("alpha") {
				req.Alpha = alpha
			}
			if cmd.Flags().Changed("power") {
				req.Power = power
			}
			if cmd.Flags().Changed("std") {
				req.Std = &std
			}

			plan, err := svc.experiments.SampleSize(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, plan)
			}
			fmt.Fprintf(out, "Sample size: %d per group, %d total\n", plan.PerGroup, plan.Total)
			fmt.Fprintf(out, "Effect: %.6g absolute (σ = %.6g", plan.AbsoluteEffect, plan.Std)
			if plan.StdDerived {
				fmt.Fprint(out, ", from pooled proportion")
			}
			fmt.Fprintf(out, "), α = %.3g, power = %.3g\n\nChecklist:\n", req.Alpha, req.Power)
			for _, item := range plan.Checklist {
				fmt.Fprintf(out, "  - %s\n", item)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "Baseline metric value (required)")
	cmd.Flags().Float64Var(&mdePct, "mde-pct", 0, "Minimum detectable effect in percent of baseline (required)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Two-sided significance level")
	cmd.Flags().Float64Var(&power, "power", 0.8, "Statistical power")
	cmd.Flags().Float64Var(&std, "std", 0, "Metric standard deviation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("mde-pct")
	return cmd
}

func newGeoMDECmd() *cobra.Command {
	var baseline, alpha, power, cv float64
	var weeks, geos int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "geo-mde",
		Short: "Minimum detectable effect of a geo test",
		Long: `Estimate the minimum detectable effect of a geo-randomized test.

Example: gomix geo-mde --baseline 100000 --weeks 4 --geos 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			req := svc.experiments.GeoTestRequest(baseline, weeks, geos)
			if cmd.Flags().Changed("alpha") {
				req.Alpha = alpha
			}
			if cmd.Flags().Changed("power") {
				req.Power = power
			}
			if cmd.Flags().Changed("cv") {
				req.CV = cv
			}

			plan, err := svc.experiments.GeoMDE(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, plan)
			}
			fmt.Fprintf(out, "MDE: %.2f absolute (%.2f%% of baseline), standard error %.2f\n",
				plan.Result.MDEAbs, plan.Result.MDEPct, plan.StdErr)
			fmt.Fprintf(out, "%s\n\n", plan.Result.Notes)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WEEK\tACTION\t")
			for _, step := range plan.Timeline {
				fmt.Fprintf(tw, "%s\t%s\t\n", step.Week, step.Action)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "Weekly baseline per geo (required)")
	cmd.Flags().IntVar(&weeks, "weeks", 4, "Test duration in weeks")
	cmd.Flags().IntVar(&geos, "geos", 10, "Geos per arm")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Two-sided significance level")
	cmd.Flags().Float64Var(&power, "power", 0.8, "Statistical power")
	cmd.Flags().Float64Var(&cv, "cv", 0.2, "Coefficient of variation of the geo metric")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("baseline")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var out, start string
	var weeks int
	var seed int64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate the synthetic demo dataset",
		Long: `Write a synthetic weekly dataset with known channel effects, or analyse it
directly when --out is not given.

Example: gomix demo --out demo.xlsx --weeks 156 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := demodata.DefaultConfig()
			cfg.Weeks = weeks
			cfg.Seed = seed
			if start != "" {
				startDate, err := time.ParseInLocation("2006-01-02", start, time.UTC)
				if err != nil {
					return fmt.Errorf("invalid --start (expected YYYY-MM-DD): %w", err)
				}
				cfg.StartDate = startDate
			}
			data, err := demodata.Generate(cfg)
			if err != nil {
				return fmt.Errorf("error generating dataset: %w", err)
			}

			w := cmd.OutOrStdout()
			if out == "" {
				svc, err := loadServices()
				if err != nil {
					return err
				}
				res, err := svc.attribution.Analyze(cmd.Context(), data.Dataset(), attribution.Params{Decay: data.Decay})
				if err != nil {
					return err
				}
				printResult(w, res)
				fmt.Fprintln(w, "\nTrue betas:")
				for _, ch := range data.Channels {
					fmt.Fprintf(w, "  %s: %.3f\n", ch.Column(), ch.Beta)
				}
				return nil
			}

			switch strings.ToLower(filepath.Ext(out)) {
			case ".csv":
				err = demodata.WriteCSV(out, data)
			case ".xlsx":
				err = demodata.WriteXLSX(out, data)
			default:
				return fmt.Errorf("unsupported output %q (use .csv or .xlsx)", out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Demo dataset written: %s\n", out)
			fmt.Fprintf(w, "Total Columns: %d | Total Rows: %d\n", len(data.Headers), len(data.Rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (.csv or .xlsx); analyse in place when empty")
	cmd.Flags().IntVar(&weeks, "weeks", 104, "Number of weeks")
	cmd.Flags().Int64Var(&seed, "seed", 42, "RNG seed (deterministic)")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	return cmd
}

func printResult(w io.Writer, res *attribution.Result) {
	fmt.Fprintf(w, "Run %s: target %s, %d/%d rows, decay %.2f, saturation %t\n",
		res.RunID, res.Roles.Target, res.UsedRows, res.InputRows, res.Params.Decay, res.Params.Saturation)
	fmt.Fprintf(w, "R² %.4f, adjusted R² %.4f, RMSE %.2f\n\n", res.Model.R2, res.Model.AdjR2, res.Model.RMSE)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CHANNEL\tSPEND\tCONTRIBUTION\tROI\tSHARE\t")
	for _, row := range res.ROI {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s\t%s\t\n",
			row.Channel, row.TotalSpend, row.TotalContribution, formatRatio(row.ROI, "%.3f"), formatRatio(100*row.ContributionShare, "%.1f%%"))
	}
	fmt.Fprintf(tw, "baseline\t\t%.2f\t\t\t\n", res.BaselineContribution)
	tw.Flush()
}

func formatRatio(v float64, format string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
