package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/recruiterlab/rankdesk/internal/records"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List job postings",
	Run: func(cmd *cobra.Command, _ []string) {
		listJobs(cmd)
	},
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		createJob(cmd)
	},
}

var jobsCloseCmd = &cobra.Command{
	Use:   "close [job id]",
	Short: "Mark a job posting as closed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		closeJob(cmd, args[0])
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete [job id]",
	Short: "Delete a job posting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		deleteJob(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsCreateCmd)
	jobsCmd.AddCommand(jobsCloseCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)

	jobsCreateCmd.Flags().StringP("title", "t", "", "job title")
	jobsCreateCmd.Flags().String("description", "", "job description text")
	jobsCreateCmd.Flags().Float64("min-budget", 0, "lower bound of the compensation budget")
	jobsCreateCmd.Flags().Float64("max-budget", 0, "upper bound of the compensation budget")
}

func newRecordsClient(zlog *zap.Logger) *records.Client {
	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	_, gw := newCore(config, zlog)
	return records.New(gw, zlog)
}

func listJobs(_ *cobra.Command) {
	zlog := mustLogger()

	jobs, err := newRecordsClient(zlog).ListJobs(context.Background())
	if err != nil {
		fatalGatewayError(zlog, "listing jobs", err)
	}

	zlog.Info("jobs fetched", zap.Int("count", jobs.Len()))

	pretty, _ := json.MarshalIndent(jobs.Items, "", "  ")
	fmt.Println(string(pretty))
}

func createJob(cmd *cobra.Command) {
	zlog := mustLogger()

	title := cmd.Flag("title").Value.String()
	if title == "" {
		zlog.Fatal("job title is required", zap.String("hint", "pass --title"))
	}

	minBudget, _ := cmd.Flags().GetFloat64("min-budget")
	maxBudget, _ := cmd.Flags().GetFloat64("max-budget")

	in := &records.JobInput{
		Title:       title,
		Description: cmd.Flag("description").Value.String(),
		MinBudget:   minBudget,
		MaxBudget:   maxBudget,
		Status:      "active",
	}

	job, err := newRecordsClient(zlog).CreateJob(context.Background(), in)
	if err != nil {
		fatalGatewayError(zlog, "creating job", err)
	}

	pretty, _ := json.MarshalIndent(job, "", "  ")
	fmt.Println(string(pretty))
}

func closeJob(_ *cobra.Command, rawID string) {
	zlog := mustLogger()

	id, err := strconv.Atoi(rawID)
	if err != nil {
		zlog.Fatal("invalid job id", zap.String("job_id", rawID))
	}

	client := newRecordsClient(zlog)
	ctx := context.Background()

	job, err := client.GetJob(ctx, id)
	if err != nil {
		fatalGatewayError(zlog, "getting job", err)
	}

	job.Status = "closed"
	updated, err := client.UpdateJob(ctx, id, &records.JobInput{
		Title:       job.Title,
		Description: job.Description,
		MinBudget:   job.MinBudget,
		MaxBudget:   job.MaxBudget,
		Status:      job.Status,
	})
	if err != nil {
		fatalGatewayError(zlog, "closing job", err)
	}

	zlog.Info("job closed", zap.Int("job_id", updated.ID), zap.String("title", updated.Title))
}

func deleteJob(_ *cobra.Command, rawID string) {
	zlog := mustLogger()

	id, err := strconv.Atoi(rawID)
	if err != nil {
		zlog.Fatal("invalid job id", zap.String("job_id", rawID))
	}

	if err := newRecordsClient(zlog).DeleteJob(context.Background(), id); err != nil {
		fatalGatewayError(zlog, "deleting job", err)
	}

	zlog.Info("job deleted", zap.Int("job_id", id))
}
