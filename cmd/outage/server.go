package outage

import (
	"github.com/spf13/cobra"
)

func initServerFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Bool("server.enable", defaultCfg.Server.Enable, "-> Serve /metrics /health /sources while collecting (是否启动HTTP服务)")
	f.String("server.addr", defaultCfg.Server.Addr, "-> HTTP listening address (HTTP监听地址)")
	f.Duration("server.read_timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration (读取超时时间)")
	f.Duration("server.write_timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration (写入超时时间)")
	f.Duration("server.idle_timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration (空闲连接超时时间)")
}

func initAlertFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("alert.slack_webhook_url", defaultCfg.Alert.SlackWebhookURL, "-> Slack incoming webhook, empty logs alerts only (告警 Webhook)")
	f.String("alert.channel", defaultCfg.Alert.Channel, "-> Slack channel override (告警频道)")
	f.String("alert.username", defaultCfg.Alert.Username, "-> Slack username (告警用户名)")
	f.Duration("alert.timeout", defaultCfg.Alert.Timeout, "-> Alert delivery timeout (告警超时时间)")
}
