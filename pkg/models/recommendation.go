package models

// OpportunityKind identifies the rule that produced an opportunity.
type OpportunityKind string

const (
	OpportunityHighConsumption OpportunityKind = "HIGH_CONSUMPTION"
	OpportunityDataQuality     OpportunityKind = "DATA_QUALITY"
	OpportunityPowerTooHigh    OpportunityKind = "POWER_TOO_HIGH"
	OpportunityPowerOverrun    OpportunityKind = "POWER_OVERRUN"
	OpportunityReactiveEnergy  OpportunityKind = "REACTIVE_ENERGY"
	OpportunityLoadShifting    OpportunityKind = "LOAD_SHIFTING"
	OpportunityDemandGrowth    OpportunityKind = "DEMAND_GROWTH"
	OpportunityPeakShaving     OpportunityKind = "PEAK_SHAVING"
)

// Category separates savings from guidance and data warnings.
type Category string

const (
	CategorySavings     Category = "savings"
	CategoryInformation Category = "information"
	CategoryDataQuality Category = "data_quality"
)

// Impact mirrors the savings band of an opportunity.
type Impact string

const (
	ImpactHigh   Impact = "HIGH"
	ImpactMedium Impact = "MEDIUM"
	ImpactLow    Impact = "LOW"
	ImpactNone   Impact = "NONE"
)

// Opportunity is a detected anomaly or suggestion.
type Opportunity struct {
	Kind     OpportunityKind `json:"kind"`
	Category Category        `json:"category"`
	Message  string          `json:"message"`
	Impact   Impact          `json:"impact"`

	// EstimatedAnnualSavings is zero for informational findings.
	EstimatedAnnualSavings float64 `json:"estimated_annual_savings"`

	// PaybackMonths is set only for suggestions that need an investment.
	PaybackMonths *float64 `json:"payback_months,omitempty"`
}
