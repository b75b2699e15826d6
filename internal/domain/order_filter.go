package domain

// OrderFilter has AND semantics across fields, OR semantics within each
// field slice. Empty fields are ignored.
type OrderFilter struct {
	Statuses   []OrderStatus
	UserIDs    []uint64
	PartnerIDs []uint64
}

// Matches reports whether the order satisfies the filter.
func (f OrderFilter) Matches(o Order) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
		return false
	}
	if len(f.UserIDs) > 0 && !containsID(f.UserIDs, o.UserID) {
		return false
	}
	if len(f.PartnerIDs) > 0 {
		if o.DeliveryPartnerID == nil || !containsID(f.PartnerIDs, *o.DeliveryPartnerID) {
			return false
		}
	}
	return true
}

func containsStatus(ss []OrderStatus, s OrderStatus) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
