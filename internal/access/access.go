// Package access holds the ownership predicate shared by every service.
package access

import "car-journal-backend/internal/apperr"

// Check succeeds when providedID denotes the same identity as expectedOwnerID
// and fails with a Forbidden error otherwise.
func Check(expectedOwnerID, providedID string) error {
	if expectedOwnerID == "" || expectedOwnerID != providedID {
		return apperr.Forbidden("access denied")
	}
	return nil
}

// CheckResource verifies both keys of a car-owned record: the acting user must
// be its owner and the car in the request path must be its parent.
func CheckResource(owner, carID, userID, pathCarID string) error {
	if err := Check(owner, userID); err != nil {
		return err
	}
	return Check(carID, pathCarID)
}
