package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ds124wfegd/course-import/config"
	"github.com/ds124wfegd/course-import/internal/appServer"
	"github.com/ds124wfegd/course-import/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import a course draft from a page URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	v, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if storageDriver != "" {
		cfg.Storage.Driver = storageDriver
	}

	ctx := cmd.Context()
	deps, cleanup, err := appServer.NewDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := service.NewImportService(deps, service.ImportServiceConfig{
		Timeout:      cfg.Import.Timeout,
		Folder:       cfg.Import.Folder,
		TargetFormat: cfg.Image.Format,
	})
	defer svc.Wait()

	draft, err := svc.Import(ctx, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
