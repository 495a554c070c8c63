package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/biosleuth/ko2pathway/internal/config"
	"github.com/biosleuth/ko2pathway/internal/kegg"
	"github.com/biosleuth/ko2pathway/internal/observability"
	"github.com/biosleuth/ko2pathway/internal/pipeline"
)

// newRunCmd creates the `run` command, the whole point of the tool.
func newRunCmd() *cobra.Command {
	var run config.RunConfig

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the KO-to-pathway summary pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if err := run.ExpandPaths(); err != nil {
				return err
			}
			if err := run.Validate(); err != nil {
				return err
			}

			cfg := appConfig
			if cfg == nil {
				return fmt.Errorf("configuration not initialized")
			}
			cfg.Run = run

			logger.Info("Starting pipeline",
				zap.String("input", run.Input),
				zap.String("cache", run.CachePath),
				zap.String("output", run.Output))

			client, err := kegg.NewClient(cfg.KEGG, logger)
			if err != nil {
				return err
			}

			stats, err := pipeline.New(cfg, client, logger).Run(ctx)
			if err != nil {
				return err
			}

			logger.Info("Pipeline finished",
				zap.Int("records", stats.Records),
				zap.Int("unique_codes", stats.UniqueCodes),
				zap.Int("edges", stats.Edges),
				zap.Int("pathways", stats.Pathways),
				zap.Int("summary_rows", stats.SummaryRows))

			fmt.Printf("Summary written to %s (%d rows)\n", run.Output, stats.SummaryRows)
			if run.Plot && stats.ChartRows > 0 {
				fmt.Printf("Chart written to %s (top %d)\n", run.PlotFile, stats.ChartRows)
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&run.Input, "input", "i", "", "Input TSV file with gene and KO columns (required)")
	runCmd.Flags().StringVarP(&run.ExcludeFile, "exclude", "e", "", "Optional file listing description terms to exclude, one per line")
	runCmd.Flags().StringVarP(&run.CachePath, "cache", "c", "kegg_ko_pathway_map.tsv", "Cache file for KO-pathway mappings (empty disables caching)")
	runCmd.Flags().StringVarP(&run.Output, "output", "o", "kegg_pathway_summary.tsv", "Output summary file")
	runCmd.Flags().StringVar(&run.Format, "format", "tsv", "Summary format: 'tsv' or 'json'")
	runCmd.Flags().BoolVarP(&run.Plot, "plot", "p", false, "Render the circular bar chart of the top pathways")
	runCmd.Flags().StringVar(&run.PlotFile, "plot-file", "top20_pathways_circular_barplot.png", "Output chart file name")
	runCmd.Flags().IntVar(&run.TopN, "top", 20, "Number of top pathways to include in the chart")
	_ = runCmd.MarkFlagRequired("input")

	return runCmd
}
