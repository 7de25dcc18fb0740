package vehicles

import "time"

// Vehicle is a registry row keyed by number plate, held in a separate
// registry database maintained outside this system.
type Vehicle struct {
	Plate        string    `json:"number_plate"`
	OwnerName    string    `json:"owner_name"`
	OwnerPhone   string    `json:"owner_phone,omitempty"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
	Model        string    `json:"model,omitempty"`
	Color        string    `json:"color,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}
