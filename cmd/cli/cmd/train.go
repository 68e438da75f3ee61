// Package cmd - train command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"premium-estimator/core/encoding"
	"premium-estimator/core/estimator"
	"premium-estimator/core/training"
	"premium-estimator/core/types"
)

var (
	trainData    string
	trainTarget  string
	trainKind    string
	trainOut     string
	trainName    string
	trainDrop    []string
	trainHoldout float64
	trainSeed    uint64
	trainTrees   int
	trainDepth   int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a model from a labelled CSV file",
	Long: `Fit a regression model and write <name>_model.json and
<name>_features.json to the output directory.

Examples:
  premium train --data insurance.csv --target charges --domain health --kind forest --name health
  premium train --data home.csv --target premium --drop Police --kind linear --holdout 0.2`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	f := trainCmd.Flags()
	f.StringVar(&trainData, "data", "", "CSV file with a header row [REQUIRED]")
	f.StringVar(&trainTarget, "target", "", "target column [REQUIRED]")
	f.StringVar(&trainKind, "kind", training.KindLinear, "model kind: mean, linear or forest")
	f.StringVar(&trainOut, "out", "models", "output directory")
	f.StringVar(&trainName, "name", "model", "artifact name prefix")
	f.StringSliceVar(&trainDrop, "drop", nil, "columns to exclude")
	f.Float64Var(&trainHoldout, "holdout", 0, "fraction of rows held out for evaluation")
	f.Uint64Var(&trainSeed, "seed", 42, "random seed")
	f.IntVar(&trainTrees, "trees", 0, "forest size")
	f.IntVar(&trainDepth, "max-depth", 0, "forest tree depth")
	f.StringVar(&modelDomain, "domain", "", "rule preset: vehicle, home or health")
	f.StringVar(&rulesPath, "rules", "", "HCL encoding rules file")
	trainCmd.MarkFlagRequired("data")
	trainCmd.MarkFlagRequired("target")
}

func runTrain(cmd *cobra.Command, args []string) error {
	rules := estimator.RulesFor(types.Domain(modelDomain))
	if rulesPath != "" {
		loaded, err := encoding.LoadRules(rulesPath)
		if err != nil {
			return err
		}
		rules = loaded
	}

	report, err := training.Train(cmd.Context(), training.Options{
		DataPath: trainData,
		Target:   trainTarget,
		Drop:     trainDrop,
		Kind:     trainKind,
		Holdout:  trainHoldout,
		Seed:     trainSeed,
		Forest:   training.ForestParams{Trees: trainTrees, MaxDepth: trainDepth},
		Rules:    rules,
		OutDir:   trainOut,
		Name:     trainName,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat == "json" {
		return printJSON(w, report)
	}
	fmt.Fprintf(w, "Trained %s model on %d rows, %d features\n", report.Kind, report.Train.Rows, len(report.Manifest))
	fmt.Fprintf(w, "  train  RMSE %.4f  MAE %.4f  R² %.4f\n", report.Train.RMSE, report.Train.MAE, report.Train.R2)
	if report.Test != nil {
		fmt.Fprintf(w, "  test   RMSE %.4f  MAE %.4f  R² %.4f\n", report.Test.RMSE, report.Test.MAE, report.Test.R2)
	}
	fmt.Fprintf(w, "Model:    %s\nFeatures: %s\n", report.ModelPath, report.FeaturePath)
	return nil
}
