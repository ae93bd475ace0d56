package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkarakoc/BiFold/config"
	"github.com/mkarakoc/BiFold/folding"
	"github.com/mkarakoc/BiFold/model"
	"github.com/mkarakoc/BiFold/physconst"
	"github.com/mkarakoc/BiFold/store"
	"github.com/mkarakoc/BiFold/transform"
)

var (
	outPath      string
	methodFlag   string
	exchangeFlag string
	noStore      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fold the configured reaction",
	Long: `Builds the densities and interaction named in the config file, folds
them and writes the potentials. The run is archived unless --no-store is
given or no database is configured.

--out writes a whitespace-separated table; a name ending in .gob writes the
whole calculation in gob encoding instead.`,
	RunE: runFold,
}

func init() {
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (table, or gob when ending in .gob)")
	runCmd.Flags().StringVar(&methodFlag, "method", "", "Quadrature method: simpson or filon")
	runCmd.Flags().StringVar(&exchangeFlag, "exchange", "", "Exchange mode: none, zr or fr")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not archive the run")
}

// cmdContext is the command's context, or Background when the command
// was not started through Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if methodFlag != "" {
		cfg.Engine.Method = methodFlag
	}
	if exchangeFlag != "" {
		cfg.Exchange.Mode = exchangeFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runFold(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	calc, err := fold(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Store.Path != "" && !noStore {
		st, err := store.Open(ctx, cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveCalculation(ctx, calc); err != nil {
			return fmt.Errorf("archive run: %w", err)
		}
		logger.Info("run archived", zap.String("id", calc.ID.String()), zap.String("db", cfg.Store.Path))
	}

	if outPath != "" {
		if err := writeOutput(outPath, calc); err != nil {
			return err
		}
		logger.Info("potentials written", zap.String("path", outPath))
	}
	printSummary(cmd.OutOrStdout(), calc)
	return nil
}

// fold runs the configured calculation.
func fold(ctx context.Context, cfg *config.Config) (*model.Calculation, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	engine, err := transform.NewEngine(&opts, logger)
	if err != nil {
		return nil, err
	}
	m, err := cfg.Meshes()
	if err != nil {
		return nil, err
	}
	req, err := cfg.Request(m)
	if err != nil {
		return nil, err
	}
	folder := folding.NewFolder(engine, physconst.Default(), logger)
	calc, err := folder.Calculate(ctx, req)
	if err != nil {
		return nil, err
	}
	if opts.EnableStats {
		stats := engine.Stats()
		logger.Info("engine statistics",
			zap.Int64("drivers", stats.TotalExecutions),
			zap.Int64("integrals", stats.Integrals),
			zap.Duration("avg_latency", stats.AverageLatency))
	}
	return calc, nil
}

func writeOutput(path string, calc *model.Calculation) error {
	if strings.EqualFold(filepath.Ext(path), ".gob") {
		data, err := calc.SerializeGob()
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fh)
	if err := writeTable(w, calc); err != nil {
		fh.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// writeTable writes U(R) for every potential, then U(q) for those that
// have one, each block headed by a comment line of column names.
func writeTable(w io.Writer, calc *model.Calculation) error {
	fmt.Fprintf(w, "# %s  E_lab=%g MeV  method=%s  id=%s\n",
		calc.Reaction.Name, calc.Reaction.ELab, calc.Method, calc.ID)
	block := func(axis string, x []float64, pick func(*model.Potential) []float64) error {
		var cols []*model.Potential
		for i := range calc.Potentials {
			if pick(&calc.Potentials[i]) != nil {
				cols = append(cols, &calc.Potentials[i])
			}
		}
		if len(cols) == 0 {
			return nil
		}
		fmt.Fprintf(w, "# %s", axis)
		for _, p := range cols {
			fmt.Fprintf(w, " %s", p.Name)
		}
		fmt.Fprintln(w)
		for i, xi := range x {
			fmt.Fprintf(w, "%.6f", xi)
			for _, p := range cols {
				fmt.Fprintf(w, " % .8e", pick(p)[i])
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	}
	if err := block("R", calc.R, func(p *model.Potential) []float64 { return p.UR }); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return block("q", calc.Q, func(p *model.Potential) []float64 { return p.UQ })
}

func printSummary(w io.Writer, calc *model.Calculation) {
	fmt.Fprintf(w, "%s  %s  E_lab=%g MeV  (%s)\n", calc.ID, calc.Reaction.Name, calc.Reaction.ELab, calc.Method)
	for _, p := range calc.Potentials {
		fmt.Fprintf(w, "  %-24s U(0)=% 12.4f  J=% 12.4f  <r2>=% 10.4f\n",
			p.Name, p.UR[0], p.Info.Vol2, p.Info.MSR)
	}
}
