// Package report aggregates a finished run into a presentable summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spigell/recruiter/internal/stages"
	"github.com/spigell/recruiter/internal/workflow"
)

type StageTiming struct {
	Stage   workflow.Stage `json:"stage"`
	Elapsed string         `json:"elapsed"`
}

// Report is a read-only view of a run for presentation layers.
type Report struct {
	SubmissionID string            `json:"submission_id"`
	SubmittedAt  time.Time         `json:"submitted_at"`
	Source       string            `json:"source"`
	Status       workflow.Status   `json:"status"`
	CurrentStage workflow.Stage    `json:"current_stage"`
	Failure      *workflow.Failure `json:"failure,omitempty"`
	Timings      []StageTiming     `json:"timings"`

	Candidate      *stages.ExtractionOutput     `json:"candidate,omitempty"`
	Analysis       *stages.AnalysisOutput       `json:"analysis,omitempty"`
	Matching       *stages.MatchingOutput       `json:"matching,omitempty"`
	Screening      *stages.ScreeningOutput      `json:"screening,omitempty"`
	Recommendation *stages.RecommendationOutput `json:"recommendation,omitempty"`
}

// Build collects every output the run recorded. Missing stages stay nil.
func Build(run *workflow.Run) *Report {
	if run == nil {
		return nil
	}

	r := &Report{
		SubmissionID: run.SubmissionID(),
		SubmittedAt:  run.SubmittedAt(),
		Source:       source(run.Input()),
		Status:       run.Status(),
		CurrentStage: run.CurrentStage(),
		Failure:      run.Failure(),
	}

	for _, out := range run.Outputs() {
		r.Timings = append(r.Timings, StageTiming{Stage: out.Stage, Elapsed: out.Duration.Round(time.Millisecond).String()})

		switch o := out.Output.(type) {
		case *stages.ExtractionOutput:
			r.Candidate = o
		case *stages.AnalysisOutput:
			r.Analysis = o
		case *stages.MatchingOutput:
			r.Matching = o
		case *stages.ScreeningOutput:
			r.Screening = o
		case *stages.RecommendationOutput:
			r.Recommendation = o
		}
	}

	return r
}

func source(in workflow.RawInput) string {
	if in.FilePath != "" {
		return in.FilePath
	}
	return "inline text"
}

func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Text renders the report for a terminal.
func (r *Report) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Submission %s (%s)\n", r.SubmissionID, r.Source)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	if r.Failure != nil {
		fmt.Fprintf(&b, "Failed at %s: %s\n  %s\n", r.Failure.Stage, r.Failure.Kind, r.Failure.Message)
	}

	if c := r.Candidate; c != nil {
		b.WriteString("\nCandidate\n")
		writeField(&b, "Name", c.Name)
		writeField(&b, "Email", c.Email)
		writeField(&b, "Location", c.Location)
		writeList(&b, "Skills", c.Skills)
	}

	if a := r.Analysis; a != nil {
		b.WriteString("\nAnalysis\n")
		writeField(&b, "Experience level", string(a.ExperienceLevel))
		writeField(&b, "Years of experience", fmt.Sprintf("%g", a.YearsOfExperience))
		writeList(&b, "Technical skills", a.TechnicalSkills)
		writeList(&b, "Domain expertise", a.DomainExpertise)
	}

	if m := r.Matching; m != nil {
		fmt.Fprintf(&b, "\nJob matches (%d passed, top %d shown)\n", m.NumberOfMatches, len(m.Matches))
		if len(m.Matches) == 0 {
			b.WriteString("  none\n")
		}
		for i, match := range m.Matches {
			fmt.Fprintf(&b, "  %d. %s at %s, %s [%s] %d%%\n", i+1, match.Title, match.Company, match.Location, match.JobID, match.MatchScorePercent)
		}
	}

	if s := r.Screening; s != nil {
		b.WriteString("\nScreening\n")
		writeField(&b, "Score", fmt.Sprintf("%d/100", s.Score))
		writeField(&b, "Verdict", string(s.Verdict))
		writeField(&b, "Report", s.Report)
		writeList(&b, "Strengths", s.Strengths)
		writeList(&b, "Concerns", s.Concerns)
	}

	if rec := r.Recommendation; rec != nil {
		b.WriteString("\nRecommendation\n")
		writeField(&b, "Decision", string(rec.Decision))
		writeField(&b, "Summary", rec.Recommendation)
		writeList(&b, "Next steps", rec.NextSteps)
		writeList(&b, "Recommended jobs", rec.RecommendedJobIDs)
	}

	if len(r.Timings) > 0 {
		b.WriteString("\nTimings\n")
		for _, t := range r.Timings {
			fmt.Fprintf(&b, "  %-15s %s\n", t.Stage, t.Elapsed)
		}
	}

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", name, value)
}

func writeList(b *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", name, strings.Join(values, ", "))
}

// DumpToTmpFile writes reports as indented JSON to a new temp file and
// returns its name.
func DumpToTmpFile(reports []*Report) (string, error) {
	file, err := os.CreateTemp("", "recruiter_reports_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return "", err
	}
	return file.Name(), nil
}
