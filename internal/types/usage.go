package types

// UsageResource identifies one of the metered resources rated by the tier schedule
type UsageResource string

const (
	UsageResourcePropertiesIn UsageResource = "datum_properties_in"
	UsageResourceDatumOut     UsageResource = "datum_out"
	UsageResourceDaysStored   UsageResource = "datum_days_stored"
)

// UsageResources lists every resource in canonical invoice order
var UsageResources = []UsageResource{
	UsageResourcePropertiesIn,
	UsageResourceDatumOut,
	UsageResourceDaysStored,
}

func (r UsageResource) String() string {
	return string(r)
}
