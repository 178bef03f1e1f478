package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recruiterlab/rankdesk/internal/filtering"
	"github.com/recruiterlab/rankdesk/internal/gateway"
	"github.com/recruiterlab/rankdesk/internal/logger"
	"github.com/recruiterlab/rankdesk/internal/ranking"
	"github.com/recruiterlab/rankdesk/internal/records"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptBack         = "back"
	PromptRerank       = "Re-run the ranking"
	PromptEditStatus   = "Edit a candidate's status"
	PromptDumpToFile   = "Dump ranking to file"
	PromptDone         = "Done"
	progressInterval   = 15 * time.Second
	rankingDurationCap = 5 * time.Minute
)

var errExit = errors.New("exit requested")

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidates against a job and triage the results",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Int("job", 0, "job id to rank against. Prompted for when unset.")
	rankCmd.Flags().BoolP("refresh", "r", false, "trigger a fresh ranking even when a cached one exists")
	rankCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before triggering a ranking")
	rankCmd.Flags().Float64("min-score", 0, "hide candidates below this overall score")
	rankCmd.Flags().StringSlice("status", nil, "show only these dispositions (active, saved, rejected)")
	rankCmd.Flags().StringSlice("budget-fit", nil, "show only these budget-fit buckets")

	viper.BindPFlag("rank.min-score", rankCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("rank.statuses", rankCmd.Flags().Lookup("status"))
	viper.BindPFlag("rank.budget-fits", rankCmd.Flags().Lookup("budget-fit"))
}

// rank drives one job's ranking lifecycle: select a job, show the cached
// snapshot, optionally trigger a fresh (and slow) scoring run, then let the
// recruiter edit dispositions.
func rank(cmd *cobra.Command) {
	ctx := context.Background()
	zlog := mustLogger()

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	manager, gw := newCore(config, zlog)
	if manager.Current() == nil {
		zlog.Fatal("not logged in", zap.String("hint", "run '"+app+" login' first"))
	}

	recs := records.New(gw, zlog)
	orch := ranking.NewOrchestrator(gw, zlog)

	job := pickJob(ctx, cmd, recs, zlog)
	jlog := logger.WithJobFields(zlog, job.ID, job.Title)

	set := orch.Select(ctx, job.ID)
	jlog.Info("loaded cached ranking", zap.Int("candidates", set.Len()))

	refresh := cmd.Flag("refresh").Value.String() == "true"
	autoApprove := cmd.Flag("yes").Value.String() == "true"

	if set.Len() == 0 && !refresh {
		refresh = autoApprove || confirm("No ranking exists for this job yet. Trigger scoring now?", jlog)
	}

	if refresh {
		triggerRanking(ctx, orch, jlog)
	}

	steps := displayFilters()

	for {
		view := filtering.Run(jlog, steps, currentView(orch))
		renderResults(job, view)

		_, action, err := mainPrompt.Run()
		if err != nil {
			jlog.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, orch, jlog); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			fatalGatewayError(jlog, "exiting", err)
		}
	}
}

var mainPrompt = promptui.Select{
	Label: "Next?",
	Items: []string{PromptEditStatus, PromptRerank, PromptDumpToFile, PromptDone},
}

func handleAction(ctx context.Context, action string, orch *ranking.Orchestrator, jlog *zap.Logger) error {
	switch action {
	case PromptRerank:
		triggerRanking(ctx, orch, jlog)
		return nil
	case PromptEditStatus:
		return editStatus(ctx, orch, jlog)
	case PromptDumpToFile:
		set, _ := orch.Results()
		filename, err := set.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump ranking to file: %w", err)
		}
		jlog.Info("dumped ranking to file", zap.String("filename", filename))
		return nil
	case PromptDone:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// triggerRanking runs the expensive scoring request, logging a heartbeat
// while it is in flight. The computation itself has no progress channel;
// the heartbeat only tells the user the client is still waiting.
func triggerRanking(ctx context.Context, orch *ranking.Orchestrator, jlog *zap.Logger) *ranking.Set {
	ctx, cancel := context.WithTimeout(ctx, rankingDurationCap)
	defer cancel()

	jlog.Info("triggering ranking computation",
		zap.String("note", "this usually takes up to a minute"),
	)

	start := time.Now()
	type outcome struct {
		set *ranking.Set
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		set, err := orch.Rank(ctx)
		done <- outcome{set: set, err: err}
	}()

	heartbeat := time.NewTicker(progressInterval)
	defer heartbeat.Stop()

	for {
		select {
		case out := <-done:
			return finishRanking(out.set, out.err, start, orch, jlog)
		case <-ctx.Done():
			// The request is canceled with the context; its error arrives
			// on done.
			out := <-done
			return finishRanking(out.set, out.err, start, orch, jlog)
		case <-heartbeat.C:
			jlog.Info("ranking still computing", zap.Duration("elapsed", time.Since(start).Round(time.Second)))
		}
	}
}

func finishRanking(set *ranking.Set, err error, start time.Time, orch *ranking.Orchestrator, jlog *zap.Logger) *ranking.Set {
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrSessionExpired):
			fatalGatewayError(jlog, "ranking", err)
		case errors.Is(err, ranking.ErrRankingInProgress):
			jlog.Warn("a ranking is already in flight for this job")
		case errors.Is(err, ranking.ErrRankingUnavailable):
			jlog.Error("scoring backend failed",
				zap.Error(err),
				zap.String("hint", "check that the scoring service is up; the previous ranking is kept"),
			)
		default:
			jlog.Error("ranking failed", zap.Error(err))
		}

		view, _ := orch.Results()
		return view
	}

	jlog.Info("ranking complete",
		zap.Int("candidates", set.Len()),
		zap.Duration("took", time.Since(start).Round(time.Second)),
	)
	return set
}

func currentView(orch *ranking.Orchestrator) *ranking.Set {
	set, _ := orch.Results()
	return set
}

func editStatus(ctx context.Context, orch *ranking.Orchestrator, jlog *zap.Logger) error {
	set, _ := orch.Results()
	if set.Len() == 0 {
		jlog.Info("nothing to edit", zap.String("reason", "no ranked candidates"))
		return nil
	}

	items := make([]string, 0, set.Len()+1)
	for _, r := range set.Items {
		items = append(items, fmt.Sprintf("%s %s / %.2f / %s", r.CandidateEmail, r.CandidateName, r.OverallScore, r.Status))
	}
	items = append(items, PromptBack)

	candidatePrompt := promptui.Select{
		Label: "Choose a candidate and press ENTER",
		Items: items,
	}
	_, selected, err := candidatePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	email := strings.Split(selected, " ")[0]

	statusItems := make([]string, 0, 3)
	for _, s := range ranking.Statuses() {
		statusItems = append(statusItems, string(s))
	}
	statusPrompt := promptui.Select{
		Label: "New status",
		Items: statusItems,
	}
	_, rawStatus, err := statusPrompt.Run()
	if err != nil {
		return err
	}

	status, err := ranking.ParseStatus(rawStatus)
	if err != nil {
		return err
	}

	if err := orch.SetStatus(ctx, email, status); err != nil {
		if errors.Is(err, gateway.ErrSessionExpired) {
			return err
		}
		// The local row already shows the new status; say so instead of
		// silently reverting a user-initiated change.
		jlog.Warn("status change not confirmed by the backend",
			logger.CandidateField(email),
			zap.Error(err),
			zap.String("hint", "the view keeps your change; re-run ranking to resync"),
		)
		return nil
	}

	return nil
}

func renderResults(job *records.Job, set *ranking.Set) {
	fmt.Printf("\n%s (job %d): %d candidate(s)\n", job.Title, job.ID, set.Len())
	if set.Len() == 0 {
		fmt.Println("  no ranked candidates")
		return
	}

	fmt.Printf("  %-4s %-28s %-20s %7s %7s %7s  %-22s %s\n",
		"#", "email", "name", "overall", "jd", "salary", "budget fit", "status")
	for i, r := range set.Items {
		fmt.Printf("  %-4d %-28s %-20s %7.2f %7.2f %7.2f  %-22s %s\n",
			i+1, r.CandidateEmail, r.CandidateName,
			r.OverallScore, r.JDMatchScore, r.SalaryMatchScore,
			r.BudgetFit, r.Status)
	}
}

func pickJob(ctx context.Context, cmd *cobra.Command, recs *records.Client, zlog *zap.Logger) *records.Job {
	jobID, _ := cmd.Flags().GetInt("job")

	jobs, err := recs.ListJobs(ctx)
	if err != nil {
		fatalGatewayError(zlog, "listing jobs", err)
	}
	if jobs.Len() == 0 {
		zlog.Fatal("no jobs found", zap.String("hint", "create one with '"+app+" jobs create'"))
	}

	if jobID != 0 {
		job := jobs.FindByID(jobID)
		if job == nil {
			zlog.Fatal("job not found",
				zap.Int("job_id", jobID),
				zap.Strings("existing job titles", jobs.Titles()),
			)
		}
		return job
	}

	items := make([]string, 0, jobs.Len())
	for _, j := range jobs.Items {
		items = append(items, fmt.Sprintf("%d %s / %s / %.0f-%.0f", j.ID, j.Title, j.Status, j.MinBudget, j.MaxBudget))
	}

	jobPrompt := promptui.Select{
		Label: "Choose a job and press ENTER",
		Items: items,
	}
	idx, _, err := jobPrompt.Run()
	if err != nil {
		zlog.Fatal("exiting", zap.Error(err))
	}

	return jobs.Items[idx]
}

// displayFilters builds the view filters from flags and the rank section
// of the config file; the two share viper keys.
func displayFilters() []filtering.Filter {
	steps := make([]filtering.Filter, 0, 3)

	minScore := viper.GetFloat64("rank.min-score")
	if minScore > 0 {
		steps = append(steps, filtering.NewMinScore(minScore))
	}

	var statuses []ranking.Status
	for _, raw := range viper.GetStringSlice("rank.statuses") {
		if s, err := ranking.ParseStatus(strings.TrimSpace(raw)); err == nil {
			statuses = append(statuses, s)
		}
	}
	if len(statuses) > 0 {
		steps = append(steps, filtering.NewByStatus(statuses...))
	}

	if buckets := viper.GetStringSlice("rank.budget-fits"); len(buckets) > 0 {
		steps = append(steps, filtering.NewBudgetFit(buckets...))
	}

	return steps
}

func confirm(question string, zlog *zap.Logger) bool {
	prompt := promptui.Select{
		Label: question,
		Items: []string{"Yes", "No"},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		zlog.Fatal("exiting", zap.Error(err))
	}
	return answer == "Yes"
}
