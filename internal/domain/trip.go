package domain

import "time"

// Driver is a row of the drivers table.
type Driver struct {
	ID        DriverID
	GivenName string
	LastName  string
}

// DisplayName returns the title-cased "Last, First" form of the driver's name.
func (d Driver) DisplayName() string {
	return DisplayName(d.LastName, d.GivenName)
}

// Location is a row of the locations table.
type Location struct {
	ID   LocationID
	Name string
}

// TripPayload is every trip field except the surrogate key.
// Two trips with equal payloads are duplicates.
type TripPayload struct {
	DriverID       DriverID
	PickupAt       time.Time
	DropoffAt      time.Time
	PassengerCount int
	PickupLocID    LocationID
	DropoffLocID   LocationID
	TripDistance   float64
	FareAmount     float64
}

// Equal reports whether p and o carry exactly the same business values.
func (p TripPayload) Equal(o TripPayload) bool {
	return p.DriverID == o.DriverID &&
		p.PickupAt.Equal(o.PickupAt) &&
		p.DropoffAt.Equal(o.DropoffAt) &&
		p.PassengerCount == o.PassengerCount &&
		p.PickupLocID == o.PickupLocID &&
		p.DropoffLocID == o.DropoffLocID &&
		p.TripDistance == o.TripDistance &&
		p.FareAmount == o.FareAmount
}

// Trip is a row of the trips table.
type Trip struct {
	ID TripID
	TripPayload
}

// Payload returns the business fields used for duplicate detection.
func (t Trip) Payload() TripPayload {
	return t.TripPayload
}
