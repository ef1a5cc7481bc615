package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hrattrition/adapters/excel"
	"hrattrition/app"
	"hrattrition/domain/attrition"
	"hrattrition/internal/analysis"
	"hrattrition/internal/charts"
	"hrattrition/internal/config"
	"hrattrition/internal/container"
	"hrattrition/internal/errors"
	"hrattrition/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	file  string
	sheet string
}

func main() {
	godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "hrattrition",
		Short:         "HR attrition KPIs, grouped rates and chart export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.file, "file", "", "Data file (.csv or .xlsx); defaults to DATA_FILE")
	rootCmd.PersistentFlags().StringVar(&flags.sheet, "sheet", "", "XLSX sheet name; defaults to DATA_SHEET or the first sheet")

	rootCmd.AddCommand(
		newSummaryCmd(flags),
		newRatesCmd(flags),
		newExportChartsCmd(flags),
		newExportDataCmd(flags),
		newGenerateSampleCmd(),
	)
	return rootCmd
}

// dashboardFor builds the pipeline from the environment plus flag overrides
func dashboardFor(flags *globalFlags) (*app.DashboardService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.file != "" {
		cfg.Data.File = flags.file
	}
	if flags.sheet != "" {
		cfg.Data.Sheet = flags.sheet
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	return c.Dashboard, nil
}

func newSummaryCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print headcount, departures and attrition/retention rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := dashboardFor(flags)
			if err != nil {
				return err
			}
			d, err := svc.Build(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, d.KPIs)
			}
			fmt.Fprintf(out, "전체 직원 수: %s명\n", analysis.FormatCount(d.KPIs.Count))
			fmt.Fprintf(out, "퇴직자 수:    %s명\n", analysis.FormatCount(d.KPIs.Departed))
			fmt.Fprintf(out, "유지율:       %s\n", analysis.FormatPct(d.KPIs.RetentionRatePct))
			fmt.Fprintf(out, "퇴직율:       %s\n", analysis.FormatPct(d.KPIs.AttritionRatePct))
			fmt.Fprintf(out, "\n%s", d.InsightsMarkdown)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print KPIs as JSON")
	return cmd
}

func newRatesCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rates [dimension]",
		Short: "Print attrition rate per group for one or all dimensions",
		Long: `Print attrition rate per group.

Dimensions: stock-option, salary-increase, overtime. Without an argument every
dimension present in the data is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := dashboardFor(flags)
			if err != nil {
				return err
			}

			keys := dimensionKeys()
			if len(args) == 1 {
				keys = []attrition.DimensionKey{attrition.DimensionKey(args[0])}
			}

			out := cmd.OutOrStdout()
			var rates []*attrition.GroupedRate
			for _, key := range keys {
				rate, err := svc.Rate(cmd.Context(), key)
				if errors.IsMissingColumn(err) && len(args) == 0 {
					continue
				}
				if err != nil {
					return err
				}
				rates = append(rates, rate)
			}

			if asJSON {
				return writeJSON(out, rates)
			}
			for _, rate := range rates {
				printRate(out, rate)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rates as JSON")
	return cmd
}

func printRate(out io.Writer, rate *attrition.GroupedRate) {
	fmt.Fprintf(out, "%s (%s)\n", rate.Column, rate.Dimension)
	for _, g := range rate.Groups {
		fmt.Fprintf(out, "  %-8s %7s  (%d/%d)\n", g.Key, analysis.FormatPct(g.RatePct), g.Departed, g.Total)
	}
	if rate.Dropped > 0 {
		fmt.Fprintf(out, "  dropped rows: %d\n", rate.Dropped)
	}
	if a := rate.Association; a != nil {
		fmt.Fprintf(out, "  chi2=%.3f df=%d p=%.4f\n", a.ChiSquare, a.DegreesOfFreedom, a.PValue)
	}
	fmt.Fprintln(out)
}

func newExportChartsCmd(flags *globalFlags) *cobra.Command {
	var outDir string
	var format string

	cmd := &cobra.Command{
		Use:   "export-charts",
		Short: "Write one chart image per dimension present in the data",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := charts.ParseFormat(format)
			if err != nil {
				return err
			}
			svc, err := dashboardFor(flags)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}
			return exportCharts(cmd.Context(), cmd.OutOrStdout(), svc, outDir, f)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "charts", "Output directory")
	cmd.Flags().StringVar(&format, "format", string(charts.PNG), "Image format: png|svg")
	return cmd
}

func exportCharts(ctx context.Context, out io.Writer, svc *app.DashboardService, dir string, format charts.Format) error {
	written := 0
	for _, key := range dimensionKeys() {
		img, err := svc.Chart(ctx, key, format)
		if errors.IsMissingColumn(err) {
			continue
		}
		if err != nil {
			return err
		}
		path := filepath.Join(dir, string(key)+"."+string(format))
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintln(out, path)
		written++
	}
	if written == 0 {
		fmt.Fprintln(out, "no chart dimensions present in the data")
	}
	return nil
}

func newExportDataCmd(flags *globalFlags) *cobra.Command {
	var outPath string
	var format string

	cmd := &cobra.Command{
		Use:   "export-data",
		Short: "Write the processed dataset (flag added, constant columns dropped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer, excel.Table) error
			switch strings.ToLower(format) {
			case "csv":
				write = excel.WriteCSV
			case "xlsx":
				write = excel.WriteXLSX
			default:
				return errors.InvalidInput(fmt.Sprintf("unsupported format %q (use csv or xlsx)", format))
			}

			svc, err := dashboardFor(flags)
			if err != nil {
				return err
			}
			ds, err := svc.Dataset(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()

			if err := write(f, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows)\n", outPath, ds.Len())
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "HR Data.csv", "Output file")
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv|xlsx")
	return cmd
}

func newGenerateSampleCmd() *cobra.Command {
	cfg := testkit.DefaultHRConfig()
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate-sample",
		Short: "Write a synthetic HR attrition file for demos and load testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.EmployeeCount < 1 {
				return errors.InvalidInput("--rows must be at least 1")
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer f.Close()

			records := testkit.NewHRDataGenerator(cfg).Records()
			if err := excel.WriteCSV(f, excel.NewRecordTable(records)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows, seed %d)\n", outPath, cfg.EmployeeCount, cfg.Seed)
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "HR Data.csv", "Output file")
	cmd.Flags().IntVar(&cfg.EmployeeCount, "rows", cfg.EmployeeCount, "Number of employees")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	return cmd
}

func dimensionKeys() []attrition.DimensionKey {
	dims := attrition.Dimensions()
	keys := make([]attrition.DimensionKey, len(dims))
	for i, d := range dims {
		keys[i] = d.Key
	}
	return keys
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
