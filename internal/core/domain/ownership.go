package domain

// CanView reports whether the principal may read a row owned by ownerID.
// Superusers see every row, everyone else only their own.
func CanView(p *Principal, ownerID string) bool {
	if p == nil {
		return false
	}
	if p.IsSuperuser {
		return true
	}
	return ownerID != "" && p.AccountID == ownerID
}

// CanAdd reports whether the principal may create rows on behalf of others.
func CanAdd(p *Principal) bool {
	return p != nil && (p.IsStaff || p.IsSuperuser)
}
