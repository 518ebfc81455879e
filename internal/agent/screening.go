package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fmuoria/jadehire-agent/internal/export"
	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/fmuoria/jadehire-agent/pkg/logger"
)

// ScreeningState is the last screening run
type ScreeningState struct {
	JobDescription models.JobDescription
	Resumes        []models.Document
	Report         *models.ScreeningReport
}

// StandardizationState is the last standardization run
type StandardizationState struct {
	Sample models.Document
	Resume models.Document
	Output string
}

// Screen ranks resumes against a job description in one model call
func (s *Session) Screen(ctx context.Context, jobDescription string, resumes []models.Document) (*models.ScreeningReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jd := models.JobDescription{Text: strings.TrimSpace(jobDescription)}
	if jd.Text == "" {
		return nil, invalid("job_description", "a job description is required")
	}
	if len(resumes) == 0 {
		return nil, invalid("resumes", "at least one resume is required")
	}

	s.reportProgress(0, 100, fmt.Sprintf("Screening %d resumes...", len(resumes)))

	report, err := s.scorer.ScoreCandidates(ctx, jd, resumes)
	if err != nil {
		s.log.Error(ctx, "screening failed", logger.Error(err))
		return nil, fmt.Errorf("screening failed: %w", err)
	}

	s.screening = ScreeningState{
		JobDescription: jd,
		Resumes:        append([]models.Document(nil), resumes...),
		Report:         report,
	}

	s.reportProgress(100, 100, fmt.Sprintf("Ranked %d of %d candidates", len(report.Results), len(resumes)))
	s.log.Info(ctx, "screening complete",
		logger.Int("resumes", len(resumes)), logger.Int("ranked", len(report.Results)))

	return report, nil
}

// ScreeningReport returns the last report
func (s *Session) ScreeningReport() (*models.ScreeningReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screening.Report == nil {
		return nil, missing("screening report")
	}
	return s.screening.Report, nil
}

// LastScreening returns the job description, resumes and report of the last run
func (s *Session) LastScreening() (ScreeningState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screening.Report == nil {
		return ScreeningState{}, missing("screening report")
	}
	state := s.screening
	state.Resumes = append([]models.Document(nil), s.screening.Resumes...)
	return state, nil
}

// Standardize rewrites a resume in the layout of a sample resume
func (s *Session) Standardize(ctx context.Context, sample, resume models.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(sample.Text) == "" {
		return "", invalid("sample", "a sample format document with text is required")
	}
	if strings.TrimSpace(resume.Text) == "" {
		return "", invalid("resume", "a candidate resume with text is required")
	}

	output, err := s.gateway.Complete(ctx, buildStandardizePrompt(sample.Text, resume.Text))
	if err != nil {
		return "", fmt.Errorf("standardization failed: %w", err)
	}

	s.standardization = StandardizationState{Sample: sample, Resume: resume, Output: output}
	return output, nil
}

// StandardizedExports offers the last standardized text for download
func (s *Session) StandardizedExports() ([]export.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.standardization.Output == "" {
		return nil, missing("standardized resume")
	}

	base := strings.TrimSuffix(filepath.Base(s.standardization.Resume.Name), filepath.Ext(s.standardization.Resume.Name))
	return export.StandardizedDownloads(base, s.standardization.Output), nil
}

func buildStandardizePrompt(sample, resume string) string {
	var sb strings.Builder

	sb.WriteString("Convert the following resume into the JadeHire sample style.\n")
	sb.WriteString("Keep Summary, Education, Work Experience, Projects, Certificates.\n")
	sb.WriteString("Do not invent facts that are not in the candidate resume.\n\n")
	sb.WriteString("## JADEHIRE SAMPLE\n")
	sb.WriteString(sample)
	sb.WriteString("\n\n## CANDIDATE RESUME\n")
	sb.WriteString(resume)
	sb.WriteString("\n")

	return sb.String()
}
