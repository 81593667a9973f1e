package domain

// DriverID is the surrogate key of a driver row.
type DriverID int64

// LocationID is the surrogate key of a location row.
type LocationID int64

// TripID is the surrogate key of a trip row.
type TripID int64
