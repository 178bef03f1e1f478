package records

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/gateway"
)

const jobsPath = "/api/jobs"

// Job is owned by the records backend; the client only reads it to
// parameterize ranking requests.
type Job struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	MinBudget   float64 `json:"min_budget,omitempty"`
	MaxBudget   float64 `json:"max_budget,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// JobInput carries the writable fields for job creation and update.
type JobInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	MinBudget   float64 `json:"min_budget,omitempty"`
	MaxBudget   float64 `json:"max_budget,omitempty"`
	Status      string  `json:"status,omitempty"`
}

type Jobs struct {
	Items []*Job
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id int) *Job {
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (j *Jobs) Titles() []string {
	titles := make([]string, 0, len(j.Items))
	for _, job := range j.Items {
		titles = append(titles, job.Title)
	}
	return titles
}

// Client wraps the gateway with typed operations over the records API.
type Client struct {
	gw     *gateway.Client
	logger *zap.Logger
}

func New(gw *gateway.Client, logger *zap.Logger) *Client {
	return &Client{gw: gw, logger: logger}
}

func (c *Client) ListJobs(ctx context.Context) (*Jobs, error) {
	var items []map[string]any
	if err := c.gw.GetJSON(ctx, jobsPath, nil, &items); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var jobs []*Job
	if err := decodeItems(items, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	c.logger.Debug("got jobs from backend", zap.Int("count", len(jobs)))
	return &Jobs{Items: jobs}, nil
}

func (c *Client) GetJob(ctx context.Context, id int) (*Job, error) {
	var job Job
	if err := c.gw.GetJSON(ctx, fmt.Sprintf("%s/%d", jobsPath, id), nil, &job); err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return &job, nil
}

func (c *Client) CreateJob(ctx context.Context, in *JobInput) (*Job, error) {
	var job Job
	if err := c.gw.PostJSON(ctx, jobsPath, in, &job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	c.logger.Info("created job", zap.Int("job_id", job.ID), zap.String("title", job.Title))
	return &job, nil
}

func (c *Client) UpdateJob(ctx context.Context, id int, in *JobInput) (*Job, error) {
	var job Job
	if err := c.gw.PutJSON(ctx, fmt.Sprintf("%s/%d", jobsPath, id), in, &job); err != nil {
		return nil, fmt.Errorf("update job %d: %w", id, err)
	}
	return &job, nil
}

func (c *Client) DeleteJob(ctx context.Context, id int) error {
	if err := c.gw.Delete(ctx, fmt.Sprintf("%s/%d", jobsPath, id)); err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	return nil
}

// decodeItems maps generic JSON items onto typed structs using the json
// tag names.
func decodeItems(items, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:  target,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(items)
}
