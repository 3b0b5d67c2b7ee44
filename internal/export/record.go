package export

// AggregatedRecord is the Parquet row schema for archived aggregated output.
// Optional fields carry the nil means of buckets whose column had no
// contributing rows.
type AggregatedRecord struct {
	Bucket                    int64    `parquet:"name=bucket,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	CarbonIntensityTonsPerMwh *float64 `parquet:"name=carbon_intensity_tons_per_mwh,type=DOUBLE,repetitiontype=OPTIONAL"`
	MoerTonsPerMwh            *float64 `parquet:"name=moer_tons_per_mwh,type=DOUBLE,repetitiontype=OPTIONAL"`
	DeltaTonsPerMwh           *float64 `parquet:"name=delta_marginal_vs_average_tons_per_mwh,type=DOUBLE,repetitiontype=OPTIONAL"`
}
