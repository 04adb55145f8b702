package cmd

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"github.com/spigell/jd-gatekeeper/internal/logger"
)

var scoreCmd = &cobra.Command{
	Use:   "score RESUME JOB",
	Short: "Print the similarity score of one resume and one job description",
	Args:  cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{
			"strategy":   "matching.strategy",
			"vocabulary": "matching.vocabulary",
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer l.Sync()

		config, err := getConfig()
		if err != nil {
			l.Fatal("getting a config", zap.Error(err))
		}

		if err := score(context.Background(), config, args[0], args[1], l, cmd.OutOrStdout()); err != nil {
			l.Fatal("scoring failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("strategy", "s", "", "vectorization strategy: tfidf or embedding")
	scoreCmd.Flags().String("vocabulary", "", "tfidf vocabulary: pair or global")
}

func score(ctx context.Context, config *Config, resumePath, jobPath string, l *zap.Logger, out io.Writer) error {
	resume, err := keywords.LoadRecord(resumePath)
	if err != nil {
		return fmt.Errorf("loading resume: %w", err)
	}
	job, err := keywords.LoadRecord(jobPath)
	if err != nil {
		return fmt.Errorf("loading job description: %w", err)
	}

	batch := []keywords.Reference{{ID: jobPath, Keywords: job.Keywords}}
	vectorizer, err := buildVectorizer(ctx, config, l, resume.Keywords, batch)
	if err != nil {
		return err
	}

	similarity, err := newEngine(vectorizer, config.Matching, l).Score(ctx, resume.Keywords, job.Keywords)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Cosine Similarity Score: %.4f\n", similarity)
	return err
}
