package models

import "sort"

type Plan struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

// PlanCatalog maps self-serve plan keys to their monthly price. The
// enterprise tier is deliberately absent: it goes through the sales
// demo flow, never through checkout.
var PlanCatalog = map[string]Plan{
	"starter": {Key: "starter", Name: "Voxlane Starter", AmountCents: 4900},
	"growth":  {Key: "growth", Name: "Voxlane Growth", AmountCents: 14900},
	"scale":   {Key: "scale", Name: "Voxlane Scale", AmountCents: 34900},
}

// Plans returns the catalog ordered by price, for the pricing page.
func Plans() []Plan {
	plans := make([]Plan, 0, len(PlanCatalog))
	for _, p := range PlanCatalog {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].AmountCents < plans[j].AmountCents
	})
	return plans
}
