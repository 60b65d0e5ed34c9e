package forecast

import (
	"time"

	"weather-forecast-service/internal/meteomatics"
)

// Normalize flattens the nested per-parameter forecast blocks for one
// location into one draft reading per timestamp, with whichever of the ten
// fields the payload covers populated.
//
// Unknown parameter identifiers are skipped on purpose: tolerating them
// keeps an extended provider response from failing the whole pass. A
// timestamp present in only some parameter blocks still yields a reading;
// the uncovered fields stay nil. Within a single pass a later value for the
// same (parameter, timestamp) overwrites the earlier one.
func Normalize(locationID int64, data []meteomatics.ParameterData) map[time.Time]*Reading {
	readings := make(map[time.Time]*Reading)

	for _, block := range data {
		param, ok := parameterByProviderID[block.Parameter]
		if !ok {
			continue
		}

		for _, coord := range block.Coordinates {
			for _, dv := range coord.Dates {
				ts := dv.Date.UTC()

				r, ok := readings[ts]
				if !ok {
					r = &Reading{LocationID: locationID, Timestamp: ts}
					readings[ts] = r
				}

				param.Assign(&r.ParameterSet, dv.Value)
			}
		}
	}

	return readings
}
