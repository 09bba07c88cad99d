package models

import "time"

// ResourceKind configures one car-owned record type
type ResourceKind struct {
	Name   string     // route segment and log label
	Table  string     // postgres table
	Entity EntityType // image bundle owner type
}

var (
	KindMaintenance = ResourceKind{Name: "maintenance", Table: "maintenance", Entity: EntityMaintenance}
	KindFueling     = ResourceKind{Name: "fueling", Table: "fueling", Entity: EntityFueling}
	KindAccessory   = ResourceKind{Name: "accessory", Table: "accessories", Entity: EntityAccessory}
	KindInsurance   = ResourceKind{Name: "insurance", Table: "insurance", Entity: EntityInsurance}
	KindInspection  = ResourceKind{Name: "inspection", Table: "inspections", Entity: EntityInspection}
)

// Resource is a record owned by both a user and one of their cars.
// Photos and ContactID are only changed through the image and bind-contact flows.
type Resource[T any] struct {
	ID        string    `json:"id"`
	CarID     string    `json:"car_id"`
	Owner     string    `json:"owner"`
	ContactID *string   `json:"contact_id"`
	Photos    *string   `json:"photos"`
	Details   T         `json:"details"`
	Image     *Image    `json:"image,omitempty"`
	Contact   *Contact  `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Part is a spare part used during a maintenance
type Part struct {
	Name     string  `json:"name" validate:"required"`
	Quantity int     `json:"quantity" validate:"gte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// Maintenance describes a service job
type Maintenance struct {
	ServiceType   string     `json:"service_type" validate:"required"`
	ProcessStatus string     `json:"process_status" validate:"required,oneof=planned in_progress done"`
	CostEstimate  float64    `json:"cost_estimate" validate:"gte=0"`
	Mileage       int        `json:"mileage,omitempty" validate:"gte=0"`
	ServiceDate   *time.Time `json:"service_date,omitempty"`
	PartsUsed     []Part     `json:"parts_used,omitempty" validate:"dive"`
	Notes         string     `json:"notes,omitempty" validate:"max=2000"`
}

// Fueling describes one visit to a fuel station
type Fueling struct {
	FuelType     string    `json:"fuel_type" validate:"required"`
	Quantity     float64   `json:"quantity" validate:"gt=0"`
	PricePerUnit float64   `json:"price_per_unit" validate:"gte=0"`
	TotalCost    float64   `json:"total_cost" validate:"gte=0"`
	FuelingDate  time.Time `json:"fueling_date" validate:"required"`
	Mileage      int       `json:"mileage,omitempty" validate:"gte=0"`
	Station      string    `json:"station,omitempty"`
	FullTank     bool      `json:"full_tank"`
}

// Accessory is an add-on bought for a car
type Accessory struct {
	Name        string     `json:"name" validate:"required"`
	Category    string     `json:"category,omitempty"`
	Price       float64    `json:"price" validate:"gte=0"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	Notes       string     `json:"notes,omitempty" validate:"max=2000"`
}

// Insurance is a policy covering a car
type Insurance struct {
	Provider     string    `json:"provider" validate:"required"`
	PolicyNumber string    `json:"policy_number" validate:"required"`
	Coverage     string    `json:"coverage,omitempty"`
	Premium      float64   `json:"premium" validate:"gte=0"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// Inspection is a periodic technical inspection
type Inspection struct {
	InspectionType string     `json:"inspection_type" validate:"required"`
	Result         string     `json:"result" validate:"required,oneof=passed failed pending"`
	InspectedAt    time.Time  `json:"inspected_at" validate:"required"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	Cost           float64    `json:"cost" validate:"gte=0"`
	Notes          string     `json:"notes,omitempty" validate:"max=2000"`
}
