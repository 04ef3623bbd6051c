package entity

import "math/big"

// UserIdentity is the display identity of the authenticated Google user.
// UserID is the numeric part of the people resource name; Google ids run
// past 64 bits, so it is kept as a big.Int (JSON number).
type UserIdentity struct {
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"profilePhotoUrl"`
	UserID      *big.Int `json:"userID"`
}
