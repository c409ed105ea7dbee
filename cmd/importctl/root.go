package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	storageDriver string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "importctl",
	Short: "Import a course draft from a web page",
	Long: `importctl - run the course import pipeline from the command line

Fetches a page, extracts title, description and images, publishes the
images to the configured storage and prints the resulting draft as JSON.

Run 'app' to start the HTTP service.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetOutput(os.Stderr)
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Override storage driver (local, s3)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every pipeline step")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("importctl {{.Version}}\n")
}
