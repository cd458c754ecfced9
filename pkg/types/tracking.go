package types

// TrackingInfo carries courier tracking details once an order ships.
type TrackingInfo struct {
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}
