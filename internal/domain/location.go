package domain

import "time"

// PartnerLocation is the last reported position of a delivery partner.
// It is overwritten on every report; no history is kept.
type PartnerLocation struct {
	PartnerID  uint64
	Lat        float64
	Lng        float64
	CapturedAt time.Time
}
