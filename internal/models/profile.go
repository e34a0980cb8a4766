package models

// Profile is the user record kept by the persistence collaborator
type Profile struct {
	UserID          string   `json:"userId"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	StudentID       string   `json:"studentId"`
	FavoriteVendors []string `json:"favoriteVendors"`
}

// IsFavorite reports whether the vendor is in the favorites list
func (p Profile) IsFavorite(vendorID string) bool {
	for _, id := range p.FavoriteVendors {
		if id == vendorID {
			return true
		}
	}
	return false
}
