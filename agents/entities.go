package agents

import (
	"strings"

	"supplyguard/shared/types"
)

// ExtractEntities pulls countries, equipment types, and time periods out
// of a query. Matching is substring containment against the lowercased
// query, so vocabulary entries appear in the output in vocabulary order.
func (rb *Rulebook) ExtractEntities(query string) types.Entities {
	lower := strings.ToLower(query)

	entities := types.Entities{
		Countries:      []string{},
		EquipmentTypes: []string{},
		TimePeriods:    []string{},
	}

	for _, country := range rb.Countries {
		if strings.Contains(lower, country) {
			entities.Countries = append(entities.Countries, country)
		}
	}
	for _, eqType := range rb.EquipmentTypes {
		if strings.Contains(lower, eqType) {
			entities.EquipmentTypes = append(entities.EquipmentTypes, eqType)
		}
	}
	for _, re := range rb.timeCompiled {
		entities.TimePeriods = append(entities.TimePeriods, re.FindAllString(lower, -1)...)
	}
	return entities
}
