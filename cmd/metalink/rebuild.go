package metalink

import (
	"context"
	"fmt"
	"os"

	"github.com/soundprediction/metalink/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [scope...]",
	Short: "Run the extract, link, build, embed pipeline",
	Long: `Run the full pipeline for the given portal scopes and print the
per-scope report. Scopes default to the configured portal scopes.

Rebuilds are idempotent: rerunning over unchanged portal metadata
leaves the graph unchanged. Individual scope failures are reported but
do not abort the other scopes.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
	rebuildCmd.Flags().Bool("create-indices", false, "Create store indices before rebuilding")
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	scopes := args
	if len(scopes) == 0 {
		scopes = cfg.Portal.Scopes
	}
	if len(scopes) == 0 {
		return fmt.Errorf("no scopes given and none configured under portal.scopes")
	}

	client, logger, err := initializeMetalink(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize metalink: %w", err)
	}
	ctx := context.Background()
	defer client.Close(ctx)

	if createIndices, _ := cmd.Flags().GetBool("create-indices"); createIndices {
		if err := client.CreateIndices(ctx); err != nil {
			return fmt.Errorf("failed to create indices: %w", err)
		}
	}

	report, err := client.Rebuild(ctx, scopes)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	logger.Info("rebuild complete",
		"scopes", len(report.Scopes),
		"embedding_version", report.EmbeddingVersion,
		"degraded", report.Degraded)

	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	fmt.Fprint(os.Stdout, string(out))
	return nil
}
