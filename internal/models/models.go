package models

import "time"

// User represents a user in the system
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  *string   `json:"-"`
	GoogleSubject *string   `json:"-"`
	Avatar        *string   `json:"avatar,omitempty"`
	Poster        *string   `json:"poster,omitempty"`
	PushToken     *string   `json:"push_token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuthToken is a server-side session row; a JWT is only honoured while its token row exists
type AuthToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CarSpecs describes the technical data of a car
type CarSpecs struct {
	Engine       string  `json:"engine,omitempty"`
	FuelType     string  `json:"fuel_type,omitempty" validate:"omitempty,oneof=petrol diesel electric hybrid lpg cng"`
	Transmission string  `json:"transmission,omitempty" validate:"omitempty,oneof=manual automatic cvt robot"`
	PowerHP      int     `json:"power_hp,omitempty" validate:"gte=0"`
	Displacement float64 `json:"displacement,omitempty" validate:"gte=0"`
}

// CarRegistration holds the identifiers issued for a car
type CarRegistration struct {
	Plate string `json:"plate,omitempty"`
	VIN   string `json:"vin,omitempty" validate:"omitempty,len=17,alphanum"`
}

// CarOwnership holds the dates the user owned the car
type CarOwnership struct {
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
	SoldAt      *time.Time `json:"sold_at,omitempty"`
}

// Car is the root entity every tracked record hangs off
type Car struct {
	ID           string          `json:"id"`
	Owner        string          `json:"owner"`
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Specs        CarSpecs        `json:"specs"`
	Registration CarRegistration `json:"registration"`
	Ownership    CarOwnership    `json:"ownership"`
	Photos       *string         `json:"photos"`
	Image        *Image          `json:"image,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Contact is a person or business a user deals with (garage, insurer, dealer)
type Contact struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Photos    *string   `json:"photos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reminder is a user-scheduled notification
type Reminder struct {
	ID        string     `json:"id"`
	Owner     string     `json:"owner"`
	CarID     *string    `json:"car_id,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RemindAt  time.Time  `json:"remind_at"`
	Channels  []string   `json:"channels"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Reminder delivery channels
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// DueReminder is a reminder joined with the recipient's contact points
type DueReminder struct {
	Reminder
	Email     string
	PushToken *string
}
