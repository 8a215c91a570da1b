package domain

// StatusUnknown is the explicit sentinel used when an order document carries
// no recognizable status field under any candidate spelling.
const StatusUnknown = "unknown"

// OrderSummary is the normalized view of a storefront order, extracted
// defensively from a payload whose field names are not contractually known.
type OrderSummary struct {
	Number         string `json:"number"`
	Status         string `json:"status"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}
