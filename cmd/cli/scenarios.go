package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pvbess-model/internal/scenario"
)

var scenarioDir string

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Run every scenario file in a directory against the base config",
	RunE:  runScenarios,
}

func init() {
	scenariosCmd.Flags().StringVarP(&scenarioDir, "dir", "d", "scenarios", "directory of scenario YAML/JSON files")
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	in, err := loadInputs("scenarios")
	if err != nil {
		return err
	}
	scenarios, err := scenario.Load(scenarioDir)
	if err != nil {
		return err
	}
	in.logger.Infof("running %d scenarios from %s", len(scenarios), scenarioDir)

	runner := scenario.NewRunner(scenario.WithLogger(in.logger))
	results, err := runner.Run(cmd.Context(), *in.cfg, in.timeline, scenarios)
	scenario.PrintSummary(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}
