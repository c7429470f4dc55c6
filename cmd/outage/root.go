package outage

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/logger"
	"github.com/outage-collector/pkg/snapshot"
)

var (
	cfgFile   string
	GlobalCfg *config.Config
)

var defaultCfg = config.NewDefaultConfig()

var rootCmd = &cobra.Command{
	Use:           "outage",
	Short:         "Poll outage endpoints into timestamped snapshots and chart them",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		GlobalCfg, err = config.LoadConfigWithCli(cmd)
		if err != nil {
			return fmt.Errorf("%w (请检查配置文件路径或使用 -c 参数指定)", err)
		}
		if cmd.Name() == configCmd.Name() {
			return nil
		}
		if _, err := logger.Init(GlobalCfg.Log); err != nil {
			return fmt.Errorf("日志初始化失败: %w", err)
		}
		logger.SetDefaultComponent(cmd.Name())
		logger.Debug("configuration loaded",
			zap.String("config", cfgFile),
			zap.String("root", GlobalCfg.Store.Root),
			zap.Int("cadence_minutes", GlobalCfg.Store.CadenceMinutes),
			zap.Int("sources", len(GlobalCfg.Sources)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "-> Config file path (配置文件路径)")
	// 注册分组 flag
	initStoreFlags(rootCmd)
	initCollectorFlags(rootCmd)
	initServerFlags(rootCmd)
	initAlertFlags(rootCmd)
	initRenderFlags(rootCmd)
	initLogFlags(rootCmd)

	rootCmd.AddCommand(collectCmd, renderCmd, configCmd)
}

func initStoreFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.String("store.root", defaultCfg.Store.Root, "-> Snapshot root directory (快照根目录)")
	f.Int("store.cadence_minutes", defaultCfg.Store.CadenceMinutes, "-> Fetch cadence in minutes, must divide 1440 (采集周期/分钟)")
	f.String("store.time_zone", defaultCfg.Store.TimeZone, "-> Time zone of snapshot names, e.g. Local or America/Chicago (文件名时区)")
}

// newStore 按配置打开快照目录
func newStore(cfg *config.Config) (*snapshot.Store, error) {
	loc, err := cfg.Store.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.Store.TimeZone, err)
	}
	return snapshot.NewStore(cfg.Store.Root, loc), nil
}
