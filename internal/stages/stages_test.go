package stages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spigell/recruiter/internal/ai"
	"github.com/spigell/recruiter/internal/catalog"
	"github.com/spigell/recruiter/internal/scoring"
	"github.com/spigell/recruiter/internal/workflow"
)

const (
	extractionJSON = "```json\n" + `{
  "name": "Jane Doe",
  "email": "jane@example.com",
  "skills": ["Python", "AWS"],
  "experience": [{"title": "Backend Engineer", "company": "Initech", "period": "2016-2024"}],
  "education": [{"degree": "BSc Computer Science", "institution": "State University", "year": "2015"}]
}` + "\n```"
	analysisJSON = `{
  "technical_skills": ["Python", "AWS"],
  "years_of_experience": 8,
  "experience_level": "Senior",
  "education": {"level": "Bachelor", "field": "Computer Science"},
  "confidence": 0.9
}`
	screeningJSON      = `{"score": 78, "verdict": "advance", "report": "Solid backend profile.", "strengths": ["Python"], "concerns": ["No Kubernetes"]}`
	recommendationJSON = `{"decision": "hire", "recommendation": "Proceed to technical interview.", "next_steps": ["Schedule interview"], "recommended_job_ids": ["senior-swe"]}`
)

type fakeCapability struct {
	mu        sync.Mutex
	calls     map[workflow.Stage]int
	messages  map[workflow.Stage]string
	responses map[workflow.Stage]string
	errs      map[workflow.Stage]error
	block     map[workflow.Stage]bool
}

func newFakeCapability() *fakeCapability {
	return &fakeCapability{
		calls:    map[workflow.Stage]int{},
		messages: map[workflow.Stage]string{},
		responses: map[workflow.Stage]string{
			workflow.StageExtraction:     extractionJSON,
			workflow.StageAnalysis:       analysisJSON,
			workflow.StageScreening:      screeningJSON,
			workflow.StageRecommendation: recommendationJSON,
		},
		errs:  map[workflow.Stage]error{},
		block: map[workflow.Stage]bool{},
	}
}

func (f *fakeCapability) GenerateContent(_ context.Context, system, message string) (string, error) {
	stage := stageOfPrompt(system)

	f.mu.Lock()
	f.calls[stage]++
	f.messages[stage] = message
	resp, err, block := f.responses[stage], f.errs[stage], f.block[stage]
	f.mu.Unlock()

	if block {
		// Ignores its context on purpose.
		time.Sleep(time.Second)
	}
	return resp, err
}

func (f *fakeCapability) count(stage workflow.Stage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeCapability) message(stage workflow.Stage) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[stage]
}

func stageOfPrompt(system string) workflow.Stage {
	for _, s := range workflow.Stages {
		if s == workflow.StageMatching {
			continue
		}
		if system == systemPrompt(s) {
			return s
		}
	}
	return ""
}

func testEngine(t *testing.T, c catalog.Catalog) *scoring.Engine {
	t.Helper()
	if c == nil {
		mem, err := catalog.NewMemory([]catalog.JobPosting{
			{
				ID: "senior-swe", Title: "Senior Software Engineer", Company: "Acme", Location: "Remote",
				Type: "Full-time", ExperienceLevel: catalog.Senior,
				Requirements: []string{"Python", "AWS", "Kubernetes"},
			},
			{
				ID: "junior-swe", Title: "Junior Software Engineer", Company: "Acme", Location: "Remote",
				Type: "Full-time", ExperienceLevel: catalog.Junior,
				Requirements: []string{"Python"},
			},
		})
		if err != nil {
			t.Fatalf("new memory catalog: %v", err)
		}
		c = mem
	}
	e, err := scoring.New(c, scoring.DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func newPipeline(t *testing.T, capability ai.Capability, c catalog.Catalog, opts Options) *workflow.Orchestrator {
	t.Helper()
	o, err := workflow.New(Build(capability, testEngine(t, c), nil, opts), nil)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func process(t *testing.T, o *workflow.Orchestrator, in workflow.RawInput) *workflow.Run {
	t.Helper()
	run, err := o.ProcessApplication(context.Background(), in)
	if err != nil {
		t.Fatalf("process application: %v", err)
	}
	return run
}

func TestPipelineCompletes(t *testing.T) {
	capability := newFakeCapability()
	run := process(t, newPipeline(t, capability, nil, Options{}), workflow.RawInput{Text: "Jane Doe, Python and AWS"})

	if run.Status() != workflow.StatusCompleted {
		t.Fatalf("expected completed, got %s: %+v", run.Status(), run.Failure())
	}

	extraction, _ := run.Output(workflow.StageExtraction)
	if got := extraction.(*ExtractionOutput); got.Name != "Jane Doe" || got.RawText != "Jane Doe, Python and AWS" {
		t.Fatalf("unexpected extraction output %+v", got)
	}

	analysis, _ := run.Output(workflow.StageAnalysis)
	if lvl := analysis.(*AnalysisOutput).ExperienceLevel; lvl != catalog.Senior {
		t.Fatalf("expected Senior, got %s", lvl)
	}

	out, _ := run.Output(workflow.StageMatching)
	matching := out.(*MatchingOutput)
	if matching.NumberOfMatches != 1 || len(matching.Matches) != 1 {
		t.Fatalf("expected a single match, got %+v", matching)
	}
	if m := matching.Matches[0]; m.JobID != "senior-swe" || m.MatchScorePercent != 66 {
		t.Fatalf("unexpected match %+v", m)
	}
	if matching.MatchedAt.IsZero() {
		t.Fatalf("expected match timestamp")
	}

	screening, _ := run.Output(workflow.StageScreening)
	if s := screening.(*ScreeningOutput); s.Score != 78 || s.Verdict != VerdictAdvance {
		t.Fatalf("unexpected screening %+v", s)
	}

	rec, _ := run.Output(workflow.StageRecommendation)
	if r := rec.(*RecommendationOutput); r.Decision != DecisionHire || len(r.RecommendedJobIDs) != 1 {
		t.Fatalf("unexpected recommendation %+v", r)
	}

	if strings.Contains(capability.message(workflow.StageAnalysis), "Python and AWS") {
		t.Fatalf("raw resume text must not be sent to analysis")
	}
	if !strings.Contains(capability.message(workflow.StageScreening), "senior-swe") {
		t.Fatalf("expected screening to see the matches")
	}
	for _, s := range []workflow.Stage{workflow.StageExtraction, workflow.StageAnalysis, workflow.StageScreening, workflow.StageRecommendation} {
		if capability.count(s) != 1 {
			t.Fatalf("expected one %s call, got %d", s, capability.count(s))
		}
	}
}

func TestAnalysisNormalizesLevel(t *testing.T) {
	for _, level := range []string{`"Principal"`, `""`, `null`} {
		t.Run(level, func(t *testing.T) {
			capability := newFakeCapability()
			capability.responses[workflow.StageAnalysis] = fmt.Sprintf(`{"technical_skills": ["Python"], "years_of_experience": 4, "experience_level": %s}`, level)
			if level == "null" {
				capability.responses[workflow.StageAnalysis] = `{"technical_skills": ["Python"], "years_of_experience": 4}`
			}

			run := process(t, newPipeline(t, capability, nil, Options{}), workflow.RawInput{Text: "resume"})

			out, ok := run.Output(workflow.StageAnalysis)
			if !ok {
				t.Fatalf("expected analysis output, failure: %+v", run.Failure())
			}
			if lvl := out.(*AnalysisOutput).ExperienceLevel; lvl != catalog.MidLevel {
				t.Fatalf("expected Mid-level, got %s", lvl)
			}
		})
	}
}

func TestStageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeCapability)
		stage workflow.Stage
		kind  workflow.ErrorKind
	}{
		{
			name:  "invalid json",
			setup: func(f *fakeCapability) { f.responses[workflow.StageExtraction] = "I could not parse this resume." },
			stage: workflow.StageExtraction,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name:  "missing required field",
			setup: func(f *fakeCapability) { f.responses[workflow.StageAnalysis] = `{"technical_skills": ["Go"]}` },
			stage: workflow.StageAnalysis,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name: "verdict out of enum",
			setup: func(f *fakeCapability) {
				f.responses[workflow.StageScreening] = `{"score": 50, "verdict": "maybe", "report": "?"}`
			},
			stage: workflow.StageScreening,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name: "score out of range",
			setup: func(f *fakeCapability) {
				f.responses[workflow.StageScreening] = `{"score": 150, "verdict": "hold", "report": "?"}`
			},
			stage: workflow.StageScreening,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name: "recommends unmatched job",
			setup: func(f *fakeCapability) {
				f.responses[workflow.StageRecommendation] = `{"decision": "hire", "recommendation": "ok", "recommended_job_ids": ["junior-swe"]}`
			},
			stage: workflow.StageRecommendation,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name:  "blocked response",
			setup: func(f *fakeCapability) { f.errs[workflow.StageAnalysis] = ai.ErrBlocked },
			stage: workflow.StageAnalysis,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name:  "empty response",
			setup: func(f *fakeCapability) { f.responses[workflow.StageScreening] = "```json\n```" },
			stage: workflow.StageScreening,
			kind:  workflow.KindMalformedOutput,
		},
		{
			name: "capability unreachable",
			setup: func(f *fakeCapability) {
				f.errs[workflow.StageRecommendation] = fmt.Errorf("%w: 503", ai.ErrUnavailable)
			},
			stage: workflow.StageRecommendation,
			kind:  workflow.KindCapabilityUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capability := newFakeCapability()
			tt.setup(capability)

			run := process(t, newPipeline(t, capability, nil, Options{}), workflow.RawInput{Text: "resume"})

			f := run.Failure()
			if run.Status() != workflow.StatusFailed || f == nil {
				t.Fatalf("expected failed run, got %s", run.Status())
			}
			if f.Stage != tt.stage || f.Kind != tt.kind {
				t.Fatalf("expected %s at %s, got %+v", tt.kind, tt.stage, f)
			}
			if run.HasOutput(tt.stage) {
				t.Fatalf("failed stage must not have output")
			}
		})
	}
}

func TestStageTimeout(t *testing.T) {
	capability := newFakeCapability()
	capability.block[workflow.StageAnalysis] = true

	opts := Options{Timeouts: map[string]time.Duration{"analysis": 20 * time.Millisecond}}
	run := process(t, newPipeline(t, capability, nil, opts), workflow.RawInput{Text: "resume"})

	f := run.Failure()
	if f == nil || f.Stage != workflow.StageAnalysis || f.Kind != workflow.KindCapabilityTimeout {
		t.Fatalf("expected analysis timeout, got %+v", f)
	}
	if capability.count(workflow.StageScreening) != 0 {
		t.Fatalf("expected screening never to run")
	}
}

func TestNilCapabilityIsUnavailable(t *testing.T) {
	run := process(t, newPipeline(t, nil, nil, Options{}), workflow.RawInput{Text: "resume"})

	f := run.Failure()
	if f == nil || f.Stage != workflow.StageExtraction || f.Kind != workflow.KindCapabilityUnavailable {
		t.Fatalf("expected extraction unavailable, got %+v", f)
	}
}

type brokenCatalog struct{}

func (brokenCatalog) FindByExperienceLevel(context.Context, catalog.ExperienceLevel) ([]catalog.JobPosting, error) {
	return nil, fmt.Errorf("%w: connection refused", catalog.ErrUnavailable)
}

func TestMatchingCatalogUnavailable(t *testing.T) {
	capability := newFakeCapability()
	run := process(t, newPipeline(t, capability, brokenCatalog{}, Options{}), workflow.RawInput{Text: "resume"})

	f := run.Failure()
	if f == nil || f.Stage != workflow.StageMatching || f.Kind != workflow.KindCatalogUnavailable {
		t.Fatalf("expected catalog unavailable at matching, got %+v", f)
	}
	if got := len(run.Outputs()); got != 2 {
		t.Fatalf("expected extraction and analysis outputs, got %d", got)
	}
	if capability.count(workflow.StageScreening) != 0 || capability.count(workflow.StageRecommendation) != 0 {
		t.Fatalf("expected later stages never to run")
	}
}

// stalledCatalog answers only after delay and never looks at its context.
type stalledCatalog struct {
	delay time.Duration
}

func (c stalledCatalog) FindByExperienceLevel(context.Context, catalog.ExperienceLevel) ([]catalog.JobPosting, error) {
	time.Sleep(c.delay)
	return nil, nil
}

func TestMatchingTimeoutWithStalledCatalog(t *testing.T) {
	capability := newFakeCapability()
	opts := Options{Timeouts: map[string]time.Duration{"matching": 20 * time.Millisecond}}

	start := time.Now()
	run := process(t, newPipeline(t, capability, stalledCatalog{delay: 300 * time.Millisecond}, opts), workflow.RawInput{Text: "resume"})
	elapsed := time.Since(start)

	f := run.Failure()
	if f == nil || f.Stage != workflow.StageMatching || f.Kind != workflow.KindCapabilityTimeout {
		t.Fatalf("expected capability timeout at matching, got %+v", f)
	}
	if elapsed >= 300*time.Millisecond {
		t.Fatalf("expected matching to give up before the catalog answered, took %s", elapsed)
	}
	if run.HasOutput(workflow.StageMatching) {
		t.Fatalf("timed out matching must not record output")
	}
	if capability.count(workflow.StageScreening) != 0 {
		t.Fatalf("expected screening never to run")
	}
}

func TestExtractionReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte("Jane Doe\nPython, AWS\n"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	capability := newFakeCapability()
	run := process(t, newPipeline(t, capability, nil, Options{}), workflow.RawInput{FilePath: path})

	if run.Status() != workflow.StatusCompleted {
		t.Fatalf("expected completed, got %+v", run.Failure())
	}
	if got := capability.message(workflow.StageExtraction); got != "Jane Doe\nPython, AWS" {
		t.Fatalf("unexpected extraction message %q", got)
	}
}

func TestExtractionRejectsUnreadableInput(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write blank: %v", err)
	}

	for _, path := range []string{pdf, blank, filepath.Join(dir, "missing.txt")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			capability := newFakeCapability()
			run := process(t, newPipeline(t, capability, nil, Options{}), workflow.RawInput{FilePath: path})

			f := run.Failure()
			if f == nil || f.Stage != workflow.StageExtraction || f.Kind != workflow.KindInvalidInput {
				t.Fatalf("expected invalid input at extraction, got %+v", f)
			}
			if capability.count(workflow.StageExtraction) != 0 {
				t.Fatalf("capability must not be called for unreadable input")
			}
		})
	}
}

func TestInvokeReportsCallerCancellation(t *testing.T) {
	capability := newFakeCapability()
	capability.block[workflow.StageExtraction] = true

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	o, err := workflow.New(Build(capability, testEngine(t, nil), nil, Options{}), nil)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	run, _ := o.ProcessApplication(ctx, workflow.RawInput{Text: "resume"})

	f := run.Failure()
	if f == nil || f.Kind != workflow.KindCanceled || f.Stage != workflow.StageExtraction {
		t.Fatalf("expected cancellation at extraction, got %+v", f)
	}
}

func TestTimeoutFor(t *testing.T) {
	opts := Options{Timeout: time.Minute, Timeouts: map[string]time.Duration{"screening": time.Second}}

	if got := opts.timeoutFor(workflow.StageScreening); got != time.Second {
		t.Fatalf("expected override, got %s", got)
	}
	if got := opts.timeoutFor(workflow.StageAnalysis); got != time.Minute {
		t.Fatalf("expected shared timeout, got %s", got)
	}
	if got := (Options{}).timeoutFor(workflow.StageAnalysis); got != DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", got)
	}
}

func TestBuildCoversEveryStage(t *testing.T) {
	runners := Build(nil, nil, nil, Options{})
	if len(runners) != len(workflow.Stages) {
		t.Fatalf("expected %d runners, got %d", len(workflow.Stages), len(runners))
	}
	for i, r := range runners {
		if r.Stage() != workflow.Stages[i] {
			t.Fatalf("runner %d serves %s", i, r.Stage())
		}
	}
}

func TestMatchingWithoutEngine(t *testing.T) {
	m := NewMatching(nil, Options{})
	view := fakeView{outputs: map[workflow.Stage]workflow.Output{
		workflow.StageAnalysis: &AnalysisOutput{TechnicalSkills: []string{"Go"}, ExperienceLevel: catalog.Senior},
	}}

	_, err := m.Execute(context.Background(), view)
	if !errors.Is(err, workflow.ErrCatalogUnavailable) {
		t.Fatalf("expected catalog unavailable, got %v", err)
	}
}

type fakeView struct {
	outputs map[workflow.Stage]workflow.Output
}

func (fakeView) SubmissionID() string { return "sub" }

func (fakeView) Input() workflow.RawInput { return workflow.RawInput{Text: "resume"} }

func (v fakeView) Output(s workflow.Stage) (workflow.Output, bool) {
	out, ok := v.outputs[s]
	return out, ok
}
