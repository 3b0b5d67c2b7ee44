// Package emissions holds the domain layer of the data core: the two source
// series definitions, the warehouse fetcher and the service consumed by the
// presentation boundary.
package emissions

import "fmt"

// Source table names within the warehouse schema.
const (
	// AverageIntensityTable holds zone-keyed average carbon intensity.
	AverageIntensityTable = "average_carbon_intensity"
	// MarginalRateTable holds balancing-authority-keyed marginal operating
	// emissions rates.
	MarginalRateTable = "marginal_operating_emissions_rate"
)

// Column names of the average carbon intensity series.
const (
	AverageIntensityTimestampColumn = "emaps_carbonintensity_timestamp"
	AverageIntensityZoneColumn      = "emaps_carbonintensity_zone"
	AverageIntensityRateColumn      = "carbon_intensity_tons_per_mwh"
)

// Column names of the marginal operating emissions rate series.
const (
	MarginalRateTimestampColumn = "moers_timestamp"
	MarginalRateColumn          = "moer_tons_per_mwh"
	MarginalRateAuthorityColumn = "watttime_balancing_authority"
)

// DeltaColumn is the derived per-bucket difference:
// mean marginal rate minus mean average intensity.
const DeltaColumn = "delta_marginal_vs_average_tons_per_mwh"

// AverageIntensityQuery returns the SELECT for the average carbon intensity
// series within the given schema.
func AverageIntensityQuery(schema string) string {
	return fmt.Sprintf(
		`SELECT %s,%s,%s FROM "%s"."%s";`,
		AverageIntensityTimestampColumn,
		AverageIntensityZoneColumn,
		AverageIntensityRateColumn,
		schema,
		AverageIntensityTable,
	)
}

// MarginalRateQuery returns the SELECT for the marginal operating emissions
// rate series within the given schema.
func MarginalRateQuery(schema string) string {
	return fmt.Sprintf(
		`SELECT %s,%s,%s FROM "%s"."%s";`,
		MarginalRateTimestampColumn,
		MarginalRateColumn,
		MarginalRateAuthorityColumn,
		schema,
		MarginalRateTable,
	)
}
