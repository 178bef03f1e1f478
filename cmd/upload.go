package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [resume.pdf ...]",
	Short: "Upload resume PDFs with per-file compensation figures",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		upload(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringSlice("current-ctc", nil, "current compensation per file, in upload order")
	uploadCmd.Flags().StringSlice("expected-ctc", nil, "expected compensation per file, in upload order")
}

func upload(cmd *cobra.Command, paths []string) {
	zlog := mustLogger()

	currentCTCs, _ := cmd.Flags().GetStringSlice("current-ctc")
	expectedCTCs, _ := cmd.Flags().GetStringSlice("expected-ctc")

	// Files and the two compensation sequences pair positionally; the
	// backend rejects mismatched batches, so catch it before uploading.
	if len(currentCTCs) != len(paths) || len(expectedCTCs) != len(paths) {
		zlog.Fatal("every resume needs a current and an expected compensation figure",
			zap.Int("files", len(paths)),
			zap.Int("current_ctcs", len(currentCTCs)),
			zap.Int("expected_ctcs", len(expectedCTCs)),
		)
	}

	for _, path := range paths {
		if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
			zlog.Fatal("only PDF resumes are accepted", zap.String("file", path))
		}
	}

	report, err := newRecordsClient(zlog).UploadResumes(context.Background(), paths, currentCTCs, expectedCTCs)
	if err != nil {
		fatalGatewayError(zlog, "uploading resumes", err)
	}

	for _, c := range report.Candidates {
		fmt.Printf("%s\t%s\n", c.Email, c.Name)
	}

	for _, warning := range report.Warnings {
		zlog.Warn("resume parsed without a usable email", zap.String("detail", warning))
	}
}
