package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List the candidate pool",
	Run: func(_ *cobra.Command, _ []string) {
		listCandidates()
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
}

func listCandidates() {
	zlog := mustLogger()

	candidates, err := newRecordsClient(zlog).ListCandidates(context.Background())
	if err != nil {
		fatalGatewayError(zlog, "listing candidates", err)
	}

	zlog.Info("candidates fetched", zap.Int("count", candidates.Len()))

	pretty, _ := json.MarshalIndent(candidates.Items, "", "  ")
	fmt.Println(string(pretty))
}
