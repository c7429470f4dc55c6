package outage

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/outage-collector/pkg/config"
)

const redacted = "<redacted>"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpConfig(cmd.OutOrStdout(), GlobalCfg)
	},
}

// dumpConfig 输出合并后的配置，webhook 地址脱敏
func dumpConfig(w io.Writer, cfg *config.Config) error {
	out := *cfg
	if out.Alert.SlackWebhookURL != "" {
		out.Alert.SlackWebhookURL = redacted
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
