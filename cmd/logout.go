package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Erase the persisted session",
	Run: func(_ *cobra.Command, _ []string) {
		zlog := mustLogger()

		config, err := getConfig()
		if err != nil {
			zlog.Fatal("getting a config", zap.Error(err))
		}

		manager, _ := newCore(config, zlog)
		manager.Clear()

		zlog.Info("logged out")
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
