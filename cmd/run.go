package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/logger"
	"github.com/spigell/recruiter/internal/report"
	"github.com/spigell/recruiter/internal/scoring"
	"github.com/spigell/recruiter/internal/stages"
	"github.com/spigell/recruiter/internal/workflow"
)

const (
	PromptShowReports   = "Show reports"
	PromptShowJSON      = "Show reports as JSON"
	PromptShowFailures  = "Show failures only"
	PromptReportsToFile = "Dump reports to file"
	PromptExit          = "Exit"

	formatText = "text"
	formatJSON = "json"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowReports, PromptShowJSON, PromptShowFailures, PromptReportsToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run [resume files...]",
	Short: "Process candidate resumes through the recruitment pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("text", "t", nil, "resume text to process, can be repeated")
	runCmd.Flags().BoolP("auto-approve", "y", false, "print reports and exit without the interactive menu")
	runCmd.Flags().StringP("format", "f", formatText, "report format for --auto-approve: text or json")
	runCmd.Flags().IntP("workers", "w", 0, "how many submissions to process at once")

	viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	texts, _ := cmd.Flags().GetStringArray("text")
	inputs := collectInputs(args, texts)
	if len(inputs) == 0 {
		logger.Fatal("nothing to process", zap.String("hint", "pass resume files as arguments or use --text"))
	}

	logger.Info("starting the recruiter", zap.String("version", version), zap.Int("submissions", len(inputs)))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	jobs, closeCatalog, err := openCatalog(ctx, config.Catalog, logger)
	if err != nil {
		logger.Fatal("opening the job catalog", zap.Error(err))
	}
	defer closeCatalog()

	engine, err := scoring.New(jobs, config.Matching)
	if err != nil {
		logger.Fatal("creating the scoring engine", zap.Error(err))
	}

	capability, err := newCapability(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("analysis capability is not available, submissions will fail at extraction", zap.Error(err))
		capability = nil
	}

	opts := config.Stages
	opts.Logger = logger

	orchestrator, err := workflow.New(stages.Build(capability, engine, stages.PlainTextSource{}, opts), logger)
	if err != nil {
		logger.Fatal("creating the orchestrator", zap.Error(err))
	}

	results := orchestrator.ProcessAll(ctx, inputs, config.Workers)
	reports := summarize(results, logger)

	if cmd.Flag("auto-approve").Value.String() == "true" {
		format, _ := cmd.Flags().GetString("format")
		if err := printReports(reports, format); err != nil {
			logger.Fatal("printing reports", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, reports); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func collectInputs(files, texts []string) []workflow.RawInput {
	inputs := make([]workflow.RawInput, 0, len(files)+len(texts))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			inputs = append(inputs, workflow.RawInput{FilePath: f})
		}
	}
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			inputs = append(inputs, workflow.RawInput{Text: t})
		}
	}
	return inputs
}

func summarize(results []workflow.Result, logger *zap.Logger) []*report.Report {
	reports := make([]*report.Report, 0, len(results))
	var completed, failed, rejected int

	for _, res := range results {
		if res.Err != nil {
			rejected++
			continue
		}
		if res.Run.Status() == workflow.StatusCompleted {
			completed++
		} else {
			failed++
		}
		reports = append(reports, report.Build(res.Run))
	}

	logger.Info("submissions processed",
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Int("rejected", rejected),
	)

	return reports
}

func handleAction(action string, logger *zap.Logger, reports []*report.Report) error {
	switch action {
	case PromptShowReports:
		return printReports(reports, formatText)
	case PromptShowJSON:
		return printReports(reports, formatJSON)
	case PromptShowFailures:
		failed := make([]*report.Report, 0)
		for _, r := range reports {
			if r.Failure != nil {
				failed = append(failed, r)
			}
		}
		logger.Info("failed submissions", zap.Int("count", len(failed)))
		return printReports(failed, formatText)
	case PromptReportsToFile:
		filename, err := report.DumpToTmpFile(reports)
		if err != nil {
			return fmt.Errorf("dump reports to file: %w", err)
		}
		logger.Info("dumping reports to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printReports(reports []*report.Report, format string) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case formatText, "":
		for i, r := range reports {
			if i > 0 {
				fmt.Println(strings.Repeat("-", 60))
			}
			fmt.Print(r.Text())
		}
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
	return nil
}
