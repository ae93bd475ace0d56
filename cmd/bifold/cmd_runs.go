package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mkarakoc/BiFold/config"
	"github.com/mkarakoc/BiFold/metrics"
	"github.com/mkarakoc/BiFold/model"
	"github.com/mkarakoc/BiFold/store"
)

var (
	listLimit   int
	compareWith string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived run as YAML",
	Long: `Prints the reaction and the records of every potential of a run. With
--compare, each potential present in both runs is compared sample by
sample (MAPE, RMSE and WMSE of the other run against this one).`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of runs (0 for all)")
	showCmd.Flags().StringVar(&compareWith, "compare", "", "ID of a run to compare against")
}

// openStore opens the archive named by --db or the config file.
func openStore(ctx context.Context) (*store.Store, error) {
	path := dbPath
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Store.Path
	}
	if path == "" {
		return nil, errors.New("no run archive: pass --db or set store.path")
	}
	return store.Open(ctx, path, logger)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, listLimit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tREACTION\tE_LAB\tMETHOD\tPOTENTIALS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%d\n",
			r.ID, humanize.Time(r.CreatedAt), r.Name, r.ELab, r.Method, r.Potentials)
	}
	tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	calc, err := st.LoadCalculation(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(calc); err != nil {
		return err
	}

	if compareWith == "" {
		return nil
	}
	otherID, err := uuid.Parse(compareWith)
	if err != nil {
		return fmt.Errorf("compare id: %w", err)
	}
	other, err := st.LoadCalculation(ctx, otherID)
	if err != nil {
		return err
	}
	report, err := compareRuns(calc, other)
	if err != nil {
		return err
	}
	return enc.Encode(map[string]map[string]metrics.Summary{"compare": report})
}

// compareRuns measures every potential of got that ref also has. Runs on
// different R meshes cannot be compared.
func compareRuns(ref, got *model.Calculation) (map[string]metrics.Summary, error) {
	if len(ref.R) != len(got.R) {
		return nil, fmt.Errorf("runs use different R meshes (%d and %d points)", len(ref.R), len(got.R))
	}
	report := make(map[string]metrics.Summary)
	for _, p := range got.Potentials {
		rp, ok := ref.Potential(p.Name)
		if !ok {
			continue
		}
		s, err := metrics.Compare(rp.UR, p.UR)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		report[p.Name] = s
	}
	return report, nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.DeleteRun(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	return nil
}
