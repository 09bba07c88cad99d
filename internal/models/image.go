package models

import "time"

// EntityType identifies which kind of entity owns an image bundle
type EntityType string

const (
	EntityAvatars     EntityType = "avatars"
	EntityPosters     EntityType = "posters"
	EntityCars        EntityType = "cars"
	EntityMaintenance EntityType = "maintenance"
	EntityFueling     EntityType = "fueling"
	EntityAccessory   EntityType = "accessory"
	EntityContacts    EntityType = "contacts"
	EntityInsurance   EntityType = "insurance"
	EntityInspection  EntityType = "inspection"
)

// EntityTypes is the closed set of image owners
var EntityTypes = []EntityType{
	EntityAvatars,
	EntityPosters,
	EntityCars,
	EntityMaintenance,
	EntityFueling,
	EntityAccessory,
	EntityContacts,
	EntityInsurance,
	EntityInspection,
}

// ParseEntityType returns the entity type named s, if it is one of EntityTypes
func ParseEntityType(s string) (EntityType, bool) {
	for _, et := range EntityTypes {
		if string(et) == s {
			return et, true
		}
	}
	return "", false
}

// Image is the attachment bundle for one (owner, entity) pair.
// Selected is always a member of Resources or equal to Default.
type Image struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner"`
	EntityID   string     `json:"entity_id"`
	EntityType EntityType `json:"entity_type"`
	Default    string     `json:"default"`
	Resources  []string   `json:"resources"`
	Selected   string     `json:"selected"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
