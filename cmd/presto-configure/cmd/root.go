// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/google/uuid"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/spf13/cobra"

	"github.com/prestodb/presto-yarn-agent/pkg/materialize"
	"github.com/prestodb/presto-yarn-agent/pkg/observability"
	"github.com/prestodb/presto-yarn-agent/pkg/params"
	"github.com/prestodb/presto-yarn-agent/pkg/render"
)

var rootCmd = &cobra.Command{
	Use:          "presto-configure",
	Short:        "Materializes the Presto configuration on a YARN-managed host",
	Long:         "Creates the Presto directory layout, renders config.properties and node.properties from templates and appends the computed JVM and catalog property lines, based on a parameter document resolved by the deployment framework.",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().String("params", "", "Path to the resolved parameter document (YAML)")
	if err := rootCmd.MarkFlagRequired("params"); err != nil {
		panic(err)
	}

	rootCmd.Flags().String("component", "", "Component role to configure (COORDINATOR or WORKER); empty selects the default template")
	rootCmd.Flags().String("overrides", "", "Path to a merge-patch document applied over the parameter document")
	rootCmd.Flags().String("templates", "", "Directory overriding the built-in configuration templates")
	rootCmd.Flags().Bool("skip-chown", false, "Do not assign file ownership (for unprivileged runs)")

	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "json", "Log format (json or console)")
	rootCmd.Flags().String("log-file", "", "Write agent logs to this rotated file instead of stderr")
	rootCmd.Flags().Bool("dev", false, "Enable development logging")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	paramsPath, _ := flags.GetString("params")
	component, _ := flags.GetString("component")
	overridesPath, _ := flags.GetString("overrides")
	templatesDir, _ := flags.GetString("templates")
	skipChown, _ := flags.GetBool("skip-chown")

	logLevel, _ := flags.GetString("log-level")
	logFormat, _ := flags.GetString("log-format")
	logFile, _ := flags.GetString("log-file")
	dev, _ := flags.GetBool("dev")

	log, err := observability.NewLogger(observability.LoggerConfig{
		Level:       logLevel,
		Development: dev,
		Encoding:    logFormat,
		File:        logFile,
		MaxSizeMB:   10,
		MaxBackups:  3,
	})
	if err != nil {
		return err
	}
	log = log.WithValues("invocation", uuid.NewString())

	if err := materialize.ValidateComponent(component); err != nil {
		log.Error(err, "invalid component flag")
		return err
	}

	fsys := osfs.New()
	p, err := params.Load(fsys, paramsPath, overridesPath)
	if err != nil {
		log.Error(err, "cannot load parameter document", "path", paramsPath)
		return err
	}

	renderer := render.NewRenderer()
	if templatesDir != "" {
		renderer = render.NewDirRenderer(templatesDir)
	}

	owner := materialize.NewHostOwnership()
	if skipChown {
		owner = materialize.NewNopOwnership()
	}

	m := materialize.New(fsys, renderer, owner, p, log)
	if err := m.Apply(component); err != nil {
		log.Error(err, "configuration materialization failed", "component", component)
		return err
	}

	log.Info("configuration materialized", "component", component, "confDir", p.Directories.Conf)
	return nil
}
