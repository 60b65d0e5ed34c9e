package forecast

// Parameter couples a provider parameter identifier with the reading field
// it populates. The request builder, the normalizer, and the top-locations
// metric set are all driven from the same table so they cannot drift apart.
type Parameter struct {
	ProviderID string // identifier sent to and returned by the provider
	Column     string // reading field / storage column name

	assign func(*ParameterSet, float64)
	value  func(*ParameterSet) *float64
}

// Assign sets the parameter's field on the given set, overwriting any
// previous value.
func (p Parameter) Assign(ps *ParameterSet, v float64) { p.assign(ps, v) }

// Value returns a pointer to the parameter's field on the given set, nil
// when the field is unset.
func (p Parameter) Value(ps *ParameterSet) *float64 { return p.value(ps) }

// Parameters is the fixed, ordered bijection between the ten provider
// parameter identifiers and the ten reading fields.
var Parameters = []Parameter{
	{
		ProviderID: "wind_speed_10m:ms",
		Column:     "wind_speed",
		assign:     func(ps *ParameterSet, v float64) { ps.WindSpeed = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.WindSpeed },
	},
	{
		ProviderID: "wind_dir_10m:d",
		Column:     "wind_direction",
		assign:     func(ps *ParameterSet, v float64) { ps.WindDirection = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.WindDirection },
	},
	{
		ProviderID: "wind_gusts_10m_1h:ms",
		Column:     "wind_gusts_1h",
		assign:     func(ps *ParameterSet, v float64) { ps.WindGusts1h = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.WindGusts1h },
	},
	{
		ProviderID: "wind_gusts_10m_24h:ms",
		Column:     "wind_gusts_24h",
		assign:     func(ps *ParameterSet, v float64) { ps.WindGusts24h = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.WindGusts24h },
	},
	{
		ProviderID: "t_2m:C",
		Column:     "temperature",
		assign:     func(ps *ParameterSet, v float64) { ps.Temperature = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.Temperature },
	},
	{
		ProviderID: "t_max_2m_24h:C",
		Column:     "max_temperature",
		assign:     func(ps *ParameterSet, v float64) { ps.MaxTemperature = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.MaxTemperature },
	},
	{
		ProviderID: "t_min_2m_24h:C",
		Column:     "min_temperature",
		assign:     func(ps *ParameterSet, v float64) { ps.MinTemperature = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.MinTemperature },
	},
	{
		ProviderID: "msl_pressure:hPa",
		Column:     "pressure",
		assign:     func(ps *ParameterSet, v float64) { ps.Pressure = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.Pressure },
	},
	{
		ProviderID: "precip_1h:mm",
		Column:     "precipitation_1h",
		assign:     func(ps *ParameterSet, v float64) { ps.Precipitation1h = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.Precipitation1h },
	},
	{
		ProviderID: "precip_24h:mm",
		Column:     "precipitation_24h",
		assign:     func(ps *ParameterSet, v float64) { ps.Precipitation24h = &v },
		value:      func(ps *ParameterSet) *float64 { return ps.Precipitation24h },
	},
}

var parameterByProviderID = func() map[string]Parameter {
	m := make(map[string]Parameter, len(Parameters))
	for _, p := range Parameters {
		m[p.ProviderID] = p
	}
	return m
}()

// ProviderIDs returns the provider identifiers in request order.
func ProviderIDs() []string {
	ids := make([]string, len(Parameters))
	for i, p := range Parameters {
		ids[i] = p.ProviderID
	}
	return ids
}

// Columns returns the storage column names in table order.
func Columns() []string {
	cols := make([]string, len(Parameters))
	for i, p := range Parameters {
		cols[i] = p.Column
	}
	return cols
}
