// Package cmd - learned-model commands
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"premium-estimator/core/estimator"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
)

var (
	modelPath    string
	featuresPath string
	rulesPath    string
	modelDomain  string
	inputPath    string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Quote premiums with a trained model",
	Long: `Load a model artifact and price one record or an array of records.

The input file holds a JSON object or an array of objects; "-" reads stdin.
Arrays are encoded as one batch, so missing numeric values take the batch
median.

Examples:
  premium predict --input policy.json
  premium predict --model models/health_model.json --features models/health_features.json --domain health --input batch.json`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show the feature importances of a trained model",
	Args:  cobra.NoArgs,
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(explainCmd)

	for _, c := range []*cobra.Command{predictCmd, explainCmd} {
		c.Flags().StringVar(&modelPath, "model", "", "model file (default from config)")
		c.Flags().StringVar(&featuresPath, "features", "", "feature manifest file (default from config)")
		c.Flags().StringVar(&rulesPath, "rules", "", "HCL encoding rules file")
		c.Flags().StringVar(&modelDomain, "domain", "", "rule preset: vehicle, home or health")
	}
	predictCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "JSON record or array of records")
	predictCmd.Flags().BoolVar(&noSave, "no-save", false, "do not journal the quotes")
}

// learnedFromFlags applies flag overrides to the configured model section
func learnedFromFlags() (*config.Config, *estimator.Learned, error) {
	cfg := *config.Get()
	if modelPath != "" {
		cfg.Model.Path = modelPath
	}
	if featuresPath != "" {
		cfg.Model.FeaturesPath = featuresPath
	}
	if rulesPath != "" {
		cfg.Model.RulesPath = rulesPath
	}
	if modelDomain != "" {
		cfg.Model.Domain = types.Domain(modelDomain)
		if !cfg.Model.Domain.IsValid() {
			return nil, nil, fmt.Errorf("unknown domain: %s", modelDomain)
		}
	}
	l, err := estimator.LearnedFromConfig(&cfg)
	return &cfg, l, err
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, l, err := learnedFromFlags()
	if err != nil {
		return err
	}

	recs, err := readRecords(cmd.InOrStdin(), inputPath)
	if err != nil {
		return err
	}
	quotes, err := estimator.EstimateBatch(cmd.Context(), l, recs, cfg.Server.Workers)
	if err != nil {
		return err
	}

	if !noSave {
		if err := saveQuotes(cmd.Context(), cfg, quotes, recs); err != nil {
			return err
		}
	}
	return printQuotes(cmd.OutOrStdout(), quotes)
}

func runExplain(cmd *cobra.Command, args []string) error {
	_, l, err := learnedFromFlags()
	if err != nil {
		return err
	}
	importances, err := estimator.Interpret(l.Artifact())
	if err != nil {
		return err
	}
	ranked := estimator.Ranked(importances)

	w := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(w, ranked)
	}
	fmt.Fprintf(w, "%s model (%s)\n\n", l.Artifact().Model().Kind(), l.Artifact().ModelPath)
	for _, c := range ranked {
		bar := strings.Repeat("█", int(c.Importance*40+0.5))
		fmt.Fprintf(w, "  %-30s %8.4f %s\n", truncate(c.Feature, 30), c.Importance, bar)
	}
	return nil
}

// readRecords parses a JSON object or array of objects, keeping numbers as json.Number
func readRecords(stdin io.Reader, path string) ([]types.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var recs []types.Record
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("invalid input JSON: %w", err)
		}
		return recs, nil
	}
	var rec types.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid input JSON: %w", err)
	}
	return []types.Record{rec}, nil
}
