package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/recruiter/internal/catalog"
	"github.com/spigell/recruiter/internal/logger"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and seed the job catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job postings of the configured catalog for an experience level",
	Run: func(cmd *cobra.Command, _ []string) {
		listCatalog(cmd)
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert job postings from a YAML file into the Postgres catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		seedCatalog(cmd)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogSeedCmd)

	catalogListCmd.Flags().StringP("level", "l", "", "experience level: Junior, Mid-level or Senior (default all)")
	catalogSeedCmd.Flags().StringP("file", "f", "", "YAML file with jobs (default is catalog.file)")
}

func commandLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func listCatalog(cmd *cobra.Command) {
	ctx := context.Background()
	logger := commandLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil || config == nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	level, _ := cmd.Flags().GetString("level")

	jobs, closeCatalog, err := openCatalog(ctx, config.Catalog, logger)
	if err != nil {
		logger.Fatal("opening the job catalog", zap.Error(err))
	}
	defer closeCatalog()

	postings, err := listPostings(ctx, jobs, level)
	if err != nil {
		logger.Fatal("querying the job catalog", zap.String("level", level), zap.Error(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLEVEL\tTITLE\tCOMPANY\tREQUIREMENTS")
	for _, p := range postings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.ExperienceLevel, p.Title, p.Company, strings.Join(p.Requirements, ", "))
	}
	w.Flush()
}

// listPostings returns the postings of one level, or of the whole catalog
// when level is blank.
func listPostings(ctx context.Context, jobs catalog.Catalog, level string) ([]catalog.JobPosting, error) {
	if strings.TrimSpace(level) == "" {
		return catalog.List(ctx, jobs)
	}

	parsed, ok := catalog.ParseExperienceLevel(level)
	if !ok {
		return nil, fmt.Errorf("unknown experience level %q, allowed: %v", level, catalog.Levels)
	}
	return jobs.FindByExperienceLevel(ctx, parsed)
}

func seedCatalog(cmd *cobra.Command) {
	ctx := context.Background()
	logger := commandLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil || config == nil || config.Catalog == nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	file, _ := cmd.Flags().GetString("file")
	if strings.TrimSpace(file) == "" {
		file = config.Catalog.File
	}

	postings, err := catalog.LoadFile(file)
	if err != nil {
		logger.Fatal("loading jobs file", zap.String("file", file), zap.Error(err))
	}

	db, err := connectPostgres(ctx, config.Catalog)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer db.Close()

	n, err := db.Upsert(ctx, postings)
	if err != nil {
		logger.Fatal("seeding the job catalog", zap.Error(err))
	}

	logger.Info("job catalog seeded", zap.String("file", file), zap.Int("postings", n))
}
