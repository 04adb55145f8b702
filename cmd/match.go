package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-gatekeeper/internal/filtering"
	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"github.com/spigell/jd-gatekeeper/internal/logger"
	"github.com/spigell/jd-gatekeeper/internal/utils"
)

const (
	excludeReason       = "eligible"
	resumePreviewLength = 120
)

type matchOptions struct {
	Resume        string
	Output        string
	AppendExclude bool
	All           bool
}

// selectResume asks the user to pick one of several processed resumes.
var selectResume = func(files []string) (string, error) {
	items := make([]string, 0, len(files))
	for _, file := range files {
		items = append(items, filepath.Base(file))
	}

	prompt := promptui.Select{
		Label: "Choose a resume and press ENTER",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return files[idx], nil
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Report the jobs a resume is eligible for",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{
			"threshold":    "matching.threshold",
			"strategy":     "matching.strategy",
			"vocabulary":   "matching.vocabulary",
			"rank":         "matching.rank",
			"workers":      "matching.workers",
			"resumes-dir":  "directories.resumes",
			"jobs-dir":     "directories.jobs",
			"exclude-file": "exclude-file",
		})
	},
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume", "r", "", "processed resume record. Asks to choose one from the resumes directory when unset.")
	matchCmd.Flags().String("resumes-dir", "", "directory with processed resumes")
	matchCmd.Flags().String("jobs-dir", "", "directory with processed job descriptions")
	matchCmd.Flags().Float64P("threshold", "t", 0, "minimum similarity a job must exceed")
	matchCmd.Flags().StringP("strategy", "s", "", "vectorization strategy: tfidf or embedding")
	matchCmd.Flags().String("vocabulary", "", "tfidf vocabulary: pair or global")
	matchCmd.Flags().Bool("rank", false, "order eligible jobs by descending score")
	matchCmd.Flags().Int("workers", 0, "number of pairs scored concurrently")
	matchCmd.Flags().StringP("output", "o", outputTable, "output format: table or json")
	matchCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")
	matchCmd.Flags().Bool("append-exclude", false, "append eligible jobs to the exclude file")
	matchCmd.Flags().BoolP("all", "a", false, "print every assessed job")
}

func runMatch(cmd *cobra.Command) {
	ctx := context.Background()

	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer l.Sync()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l = logger.WithCommonFields(l, uuid.NewString(), config.Matching.Strategy)

	l.Info("starting the matching", zap.String("version", version))
	l.Debug("starting with config",
		zap.Any("matching", config.Matching),
		zap.Any("directories", config.Directories),
	)

	opts := matchOptions{
		Resume:        cmd.Flag("resume").Value.String(),
		Output:        cmd.Flag("output").Value.String(),
		AppendExclude: cmd.Flag("append-exclude").Value.String() == "true",
		All:           cmd.Flag("all").Value.String() == "true",
	}

	if err := match(ctx, config, opts, l, cmd.OutOrStdout()); err != nil {
		l.Fatal("matching failed", zap.Error(err))
	}
}

func match(ctx context.Context, config *Config, opts matchOptions, l *zap.Logger, out io.Writer) error {
	resumePath, err := resolveResume(config.Directories.Resumes, opts.Resume, l)
	if err != nil {
		return err
	}

	resume, err := keywords.LoadRecord(resumePath)
	if err != nil {
		return fmt.Errorf("loading resume: %w", err)
	}
	l.Debug("loaded resume", zap.String("keywords", utils.TruncateForLog(resume.Keywords.Text(), resumePreviewLength)))

	batch, err := keywords.LoadBatch(config.Directories.Jobs)
	if err != nil {
		return fmt.Errorf("loading job descriptions: %w", err)
	}
	l.Info("loaded job descriptions", zap.Int("count", batch.Len()), zap.String("resume", resumePath))

	vectorizer, err := buildVectorizer(ctx, config, l, resume.Keywords, batch.Items)
	if err != nil {
		return err
	}

	engine := newEngine(vectorizer, config.Matching, l)
	l.Info("scoring job descriptions", zap.Float64("threshold", engine.Threshold()))

	deps := filtering.Deps{
		Logger:    l,
		Engine:    engine,
		Candidate: resume.Keywords,
	}
	steps, fcfg := filterSteps(config)

	_, result, err := filtering.Run(ctx, fcfg, deps, steps, batch)
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	for _, status := range filtering.Describe(steps) {
		l.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	if err := writeReport(out, opts.Output, newReport(resumePath, vectorizer.Name(), result, opts.All)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if opts.AppendExclude && result != nil && result.Len() > 0 {
		if err := appendExcluded(config.ExcludeFile, result.Eligible); err != nil {
			return err
		}
		l.Info("appended to exclude file",
			zap.String("filename", config.ExcludeFile),
			zap.Int("count", result.Len()),
		)
	}

	return nil
}

// filterSteps builds the filtering pipeline for a match run. Steps without
// anything to do are disabled so the run log says why they were skipped.
func filterSteps(config *Config) ([]filtering.Filter, *filtering.Config) {
	var roles []string
	if config.Exclude != nil {
		roles = config.Exclude.Roles
	}

	steps := []filtering.Filter{
		filtering.NewExcludeFile(),
		filtering.NewRoles(),
		filtering.NewEligibility(),
	}
	if strings.TrimSpace(config.ExcludeFile) == "" {
		filtering.DisableByName(steps, "exclude_file", "no exclude file configured")
	}
	if len(roles) == 0 {
		filtering.DisableByName(steps, "roles", "no roles to exclude")
	}

	return steps, &filtering.Config{ExcludeFile: config.ExcludeFile, ExcludeRoles: roles}
}

func resolveResume(dir, explicit string, l *zap.Logger) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}

	files, err := keywords.ListRecords(dir)
	if err != nil {
		return "", fmt.Errorf("listing resumes: %w", err)
	}

	switch len(files) {
	case 0:
		return "", fmt.Errorf("no processed resumes found in %s", dir)
	case 1:
		return files[0], nil
	}

	l.Info("several resumes found", zap.Int("count", len(files)))
	selected, err := selectResume(files)
	if err != nil {
		return "", fmt.Errorf("selecting resume: %w", err)
	}
	return selected, nil
}

func appendExcluded(path string, ids []string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("exclude file is not configured (set --exclude-file or exclude-file in config)")
	}

	excluded, err := keywords.LoadExcludedJobs(path)
	if err != nil {
		return fmt.Errorf("reading exclude file: %w", err)
	}

	known := make(map[string]struct{}, len(excluded.Items))
	for _, id := range excluded.IDs() {
		known[id] = struct{}{}
	}
	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			fresh = append(fresh, id)
		}
	}

	excluded.Append(keywords.NewExcludedJobs(excludeReason, fresh...))
	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("writing exclude file: %w", err)
	}
	return nil
}
