package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-gatekeeper/internal/keywords"
	"github.com/spigell/jd-gatekeeper/internal/logger"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the roles a resume is assessed against",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, map[string]string{"jobs-dir": "directories.jobs"})
	},
	Run: func(cmd *cobra.Command, _ []string) {
		l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer l.Sync()

		config, err := getConfig()
		if err != nil {
			l.Fatal("getting a config", zap.Error(err))
		}
		if err := listRoles(config.Directories.Jobs, cmd.OutOrStdout()); err != nil {
			l.Fatal("listing roles", zap.Error(err), zap.String("jobs_dir", config.Directories.Jobs))
		}
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)

	rolesCmd.Flags().String("jobs-dir", "", "directory with processed job descriptions")
}

func listRoles(dir string, out io.Writer) error {
	files, err := keywords.ListRecords(dir)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		_, err := fmt.Fprintf(out, "No job descriptions found in %s\n", dir)
		return err
	}

	if _, err := fmt.Fprintln(out, "The roles for which we assess your profile:"); err != nil {
		return err
	}
	for _, file := range files {
		if _, err := fmt.Fprintf(out, "~ %s\n", keywords.RoleName(file)); err != nil {
			return err
		}
	}
	return nil
}
