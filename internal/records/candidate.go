package records

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/recruiterlab/rankdesk/internal/gateway"
)

const (
	candidatesPath = "/api/candidates"
	uploadPath     = "/api/candidates/create-candidates-from-pdfs"
)

// Candidate is keyed by email on the backend.
type Candidate struct {
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	CurrentCTC  float64 `json:"current_ctc"`
	ExpectedCTC float64 `json:"expected_ctc"`
	ResumePath  string  `json:"resume_path,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

type Candidates struct {
	Items []*Candidate
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

// UploadReport is the backend's summary of a resume batch upload.
type UploadReport struct {
	Status     string       `json:"status"`
	Candidates []*Candidate `json:"created_candidates"`
	Warnings   []string     `json:"synthetic_email_warnings,omitempty"`
}

func (c *Client) ListCandidates(ctx context.Context) (*Candidates, error) {
	var items []map[string]any
	if err := c.gw.GetJSON(ctx, candidatesPath, nil, &items); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	var candidates []*Candidate
	if err := decodeItems(items, &candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}

	c.logger.Debug("got candidates from backend", zap.Int("count", len(candidates)))
	return &Candidates{Items: candidates}, nil
}

// UploadResumes sends resume PDFs with per-file compensation figures. The
// three sequences are positional: paths[i] pairs with currentCTCs[i] and
// expectedCTCs[i]. Length equality must be validated by the caller before
// this point; the backend rejects mismatched batches.
func (c *Client) UploadResumes(ctx context.Context, paths, currentCTCs, expectedCTCs []string) (*UploadReport, error) {
	uploads := make([]gateway.Upload, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening resume: %w", err)
		}
		defer f.Close()
		uploads = append(uploads, gateway.Upload{Name: filepath.Base(path), Content: f})
	}

	var report UploadReport
	err := c.gw.PostMultipart(ctx, uploadPath, nil, uploads, currentCTCs, expectedCTCs, &report)
	if err != nil {
		return nil, fmt.Errorf("upload resumes: %w", err)
	}

	c.logger.Info("uploaded resumes",
		zap.Int("files", len(paths)),
		zap.Int("created", len(report.Candidates)),
	)
	return &report, nil
}
