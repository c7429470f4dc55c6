package outage

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/chart"
	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/logger"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Rebuild a gap-aware series per source and write the HTML chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd.Context(), GlobalCfg)
	},
}

func initRenderFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	renderPrefix := "render."

	f.String(renderPrefix+"output", defaultCfg.Render.Output, "-> Chart output file, overwritten each run (图表输出文件)")
	f.String(renderPrefix+"fine_output", defaultCfg.Render.FineOutput, "-> Fault chart output file (故障图表输出文件)")
	f.String(renderPrefix+"title", defaultCfg.Render.Title, "-> Chart title (图表标题)")
	f.String(renderPrefix+"value_field", defaultCfg.Render.ValueField, "-> Numeric field summed per snapshot (求和字段)")
	f.Bool(renderPrefix+"open", defaultCfg.Render.Open, "-> Open the chart in a browser (是否打开浏览器)")
	f.Bool(renderPrefix+"progress", defaultCfg.Render.Progress, "-> Show a progress bar (是否显示进度条)")
}

func runRender(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	res, err := chart.NewReconstructor(cfg, store, chart.WithLogger(logger.GetLogger())).Run(ctx)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logger.Info("render finished",
		zap.String("output", res.Output),
		zap.String("fine_output", res.FineOutput),
		zap.Int("series", res.Series),
		zap.Int("points", res.Points))
	return nil
}
