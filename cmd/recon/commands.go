package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/recon/internal/config"
	"github.com/JonMunkholm/recon/internal/core"
	"github.com/JonMunkholm/recon/internal/history"
	"github.com/JonMunkholm/recon/internal/logging"
	"github.com/JonMunkholm/recon/internal/sheet"
)

type rootOptions struct {
	logLevel string
	jsonOut  bool
	cfg      *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "recon",
		Short: "Reconcile and merge spreadsheet exports",
		Long: `recon appends source rows whose identifiers are missing from a target
workbook, merges several exports into one workbook and reports totals.

Column offsets come from the RECON_* environment variables (or a .env file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			logging.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(newRunCommand(opts))
	root.AddCommand(newMergeCommand(opts))
	root.AddCommand(newAnalyzeCommand(opts))

	return root
}

func newService(opts *rootOptions) (*core.Service, error) {
	return core.NewService(history.NewMemory(1), opts.cfg)
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	var target, source, out string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Append source rows missing from the target",
		Example: `  recon run --target ledger.xlsx --source export.xlsx --out reconciled.xlsx
  recon run --target ledger.xlsx --source export.xlsx --out r.xlsx --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targetTable, err := sheet.DecodeFile(target)
			if err != nil {
				return err
			}
			sourceTable, err := sheet.DecodeFile(source)
			if err != nil {
				return err
			}

			svc, err := newService(opts)
			if err != nil {
				return err
			}
			res, err := svc.Reconcile(cmd.Context(), core.ReconcileInput{
				TargetName: filepath.Base(target),
				SourceName: filepath.Base(source),
				Target:     targetTable,
				Source:     sourceTable,
			})
			if err != nil {
				return userError(err)
			}

			if err := sheet.EncodeFile(out, res.Table, svc.SheetName()); err != nil {
				return err
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), res.Record)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nWrote %s\n", res.Record.Summary.Describe(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target workbook (.xlsx)")
	cmd.Flags().StringVar(&source, "source", "", "source workbook (.xlsx)")
	cmd.Flags().StringVarP(&out, "out", "o", "reconciled.xlsx", "output workbook")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func newMergeCommand(opts *rootOptions) *cobra.Command {
	var out string
	var addFileName bool

	cmd := &cobra.Command{
		Use:     "merge [flags] file.xlsx...",
		Short:   "Stack several exports into one workbook",
		Example: `  recon merge --out merged.xlsx --add-filename jan.xlsx feb.xlsx mar.xlsx`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]core.NamedTable, 0, len(args))
			for _, path := range args {
				t, err := sheet.DecodeFile(path)
				if err != nil {
					return err
				}
				files = append(files, core.NamedTable{Name: filepath.Base(path), Table: t})
			}

			svc, err := newService(opts)
			if err != nil {
				return err
			}
			res, err := svc.Merge(cmd.Context(), core.MergeInput{Files: files, AddFileName: addFileName})
			if err != nil {
				return userError(err)
			}

			if err := sheet.EncodeFile(out, res.Table, svc.SheetName()); err != nil {
				return err
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{"run": res.Record, "report": res.Report})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Merged %s files into %s rows\n", core.FormatCount(len(files)), core.FormatCount(res.Record.Summary.FinalRows))
			printReport(w, res.Report)
			fmt.Fprintf(w, "Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "merged.xlsx", "output workbook")
	cmd.Flags().BoolVar(&addFileName, "add-filename", false, "prefix every row with its source file name")

	return cmd
}

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze file.xlsx",
		Short: "Report totals and value counts of a merged workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := sheet.DecodeFile(args[0])
			if err != nil {
				return err
			}

			report := core.Analyze(t, core.DefaultAnalyzeOptions())
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), &report)
			return nil
		},
	}
}

func printReport(w io.Writer, r *core.Report) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "Data rows: %s\n", core.FormatCount(r.TotalRows))
	fmt.Fprintf(w, "Duty: %s\n", r.Duty.StringFixed(2))
	fmt.Fprintf(w, "Sales tax: %s\n", r.SalesTax.StringFixed(2))
	if !r.ColumnFound {
		fmt.Fprintf(w, "Column %q not found\n", r.CountColumn)
		return
	}
	for _, vc := range r.ValueCounts {
		fmt.Fprintf(w, "%s = %s: %s\n", r.CountColumn, vc.Value.String(), core.FormatCount(vc.Count))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError keeps the technical error and appends the mapped message with
// its support code.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%w\n%s", err, core.FormatUserError(err))
}

// exitCode maps errors to process exit codes. Input problems exit with 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case core.IsClientError(err), errors.Is(err, sheet.ErrInvalidWorkbook), errors.Is(err, os.ErrNotExist):
		return 2
	default:
		return 1
	}
}
