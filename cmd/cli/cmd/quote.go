// Package cmd - quote commands
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"premium-estimator/adapters/storage"
	"premium-estimator/core/estimator"
	"premium-estimator/core/types"
	"premium-estimator/internal/config"
)

var (
	baseCost float64
	noSave   bool

	vehicleAge       float64
	vehicleAnnualKm  float64
	vehicleCarAge    float64
	vehicleExpYears  float64
	vehicleAccidents int
	vehicleType      string

	homePropertyAge    float64
	homeMaterial       string
	homeRenovationYear int
	homeSecurity       bool
	homeFloors         int
	homeFlood          float64
	homeWildfire       float64
	homeCrime          float64
)

// quoteCmd groups the rule-based quote commands
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote a premium with the rule-based estimator",
	Long: `Quote an annual premium as base cost times the combined risk index.

Examples:
  premium quote vehicle --age 35 --annual-km 15000 --car-age 5 --exp-years 10 --accidents 1 --vehicle-type suv
  premium quote home --property-age 30 --material brick --security --floors 2 --flood 0.5`,
}

var quoteVehicleCmd = &cobra.Command{
	Use:   "vehicle",
	Short: "Quote a vehicle policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := types.Record{
			estimator.FieldAge:          vehicleAge,
			estimator.FieldAnnualKm:     vehicleAnnualKm,
			estimator.FieldCarAge:       vehicleCarAge,
			estimator.FieldExpYears:     vehicleExpYears,
			estimator.FieldNumAccidents: vehicleAccidents,
		}
		if vehicleType != "" {
			rec[estimator.FieldVehicleType] = vehicleType
		}
		return runQuote(cmd, estimator.VehicleStrategy{}, rec)
	},
}

var quoteHomeCmd = &cobra.Command{
	Use:   "home",
	Short: "Quote a home policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := types.Record{
			estimator.FieldPropertyAge:          homePropertyAge,
			estimator.FieldConstructionMaterial: homeMaterial,
			estimator.FieldHasSecuritySystem:    homeSecurity,
			estimator.FieldNumFloors:            homeFloors,
			types.EnvFloodZoneLevel:             homeFlood,
			types.EnvWildfireRisk:               homeWildfire,
			types.EnvCrimeRateIndex:             homeCrime,
		}
		if cmd.Flags().Changed("renovation-year") {
			rec[estimator.FieldRenovationYear] = homeRenovationYear
		}
		return runQuote(cmd, estimator.HomeStrategy{}, rec)
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.AddCommand(quoteVehicleCmd)
	quoteCmd.AddCommand(quoteHomeCmd)

	quoteCmd.PersistentFlags().Float64Var(&baseCost, "base-cost", 0, "base annual premium (default from config)")
	quoteCmd.PersistentFlags().BoolVar(&noSave, "no-save", false, "do not journal the quote")

	f := quoteVehicleCmd.Flags()
	f.Float64Var(&vehicleAge, "age", 0, "driver age in years")
	f.Float64Var(&vehicleAnnualKm, "annual-km", 0, "distance driven per year")
	f.Float64Var(&vehicleCarAge, "car-age", 0, "vehicle age in years")
	f.Float64Var(&vehicleExpYears, "exp-years", 0, "years of driving experience")
	f.IntVar(&vehicleAccidents, "accidents", 0, "number of past accidents")
	f.StringVar(&vehicleType, "vehicle-type", "", "sedan, suv, sports or truck")
	for _, name := range []string{"age", "annual-km", "car-age", "exp-years"} {
		quoteVehicleCmd.MarkFlagRequired(name)
	}

	f = quoteHomeCmd.Flags()
	f.Float64Var(&homePropertyAge, "property-age", 0, "property age in years")
	f.StringVar(&homeMaterial, "material", "", "construction material")
	f.IntVar(&homeRenovationYear, "renovation-year", 0, "year of last renovation")
	f.BoolVar(&homeSecurity, "security", false, "property has a security system")
	f.IntVar(&homeFloors, "floors", 1, "number of floors")
	f.Float64Var(&homeFlood, "flood", 0, "flood zone level in [0,1]")
	f.Float64Var(&homeWildfire, "wildfire", 0, "wildfire risk in [0,1]")
	f.Float64Var(&homeCrime, "crime", 0, "crime rate index in [0,1]")
	quoteHomeCmd.MarkFlagRequired("property-age")
}

func runQuote(cmd *cobra.Command, strategy estimator.RiskStrategy, rec types.Record) error {
	cfg := config.Get()
	base := cfg.Pricing.BaseCost
	if cmd.Flags().Changed("base-cost") {
		base = baseCost
	}

	est, err := estimator.NewRuleBased(base, strategy)
	if err != nil {
		return err
	}
	if cfg.Pricing.Currency != "" {
		est.WithCurrency(cfg.Pricing.Currency)
	}
	q, err := est.Estimate(rec)
	if err != nil {
		return err
	}

	if !noSave {
		if err := saveQuotes(cmd.Context(), cfg, []*types.Quote{q}, []types.Record{rec}); err != nil {
			return err
		}
	}
	return printQuotes(cmd.OutOrStdout(), []*types.Quote{q})
}

// saveQuotes journals quotes in the configured store
func saveQuotes(ctx context.Context, cfg *config.Config, quotes []*types.Quote, recs []types.Record) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	for i, q := range quotes {
		if err := store.Save(ctx, storage.FromQuote(q, recs[i])); err != nil {
			return err
		}
	}
	return nil
}

func printQuotes(w io.Writer, quotes []*types.Quote) error {
	if outputFormat == "json" {
		if len(quotes) == 1 {
			return printJSON(w, quotes[0])
		}
		return printJSON(w, quotes)
	}

	line := strings.Repeat("─", 74)
	fmt.Fprintf(w, "┌%s┐\n", line)
	for _, q := range quotes {
		fmt.Fprintf(w, "│ %-50s %21s │\n", fmt.Sprintf("%s (%s)", q.Domain, q.Strategy), q.String())
		if q.RiskIndex != nil {
			fmt.Fprintf(w, "│   └─ %-46s %21.6f │\n", "risk index", *q.RiskIndex)
		}
		fmt.Fprintf(w, "│   └─ %-67s │\n", truncate(q.Formula, 67))
	}
	fmt.Fprintf(w, "└%s┘\n", line)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
