package domain

// Canonical column sets. Column order is part of the persisted contract.
var (
	TripColumns = []string{
		"trip_id",
		"driver_id",
		"pickup_datetime",
		"dropoff_datetime",
		"passenger_count",
		"pickup_loc_id",
		"dropoff_loc_id",
		"trip_distance",
		"fare_amount",
	}
	DriverColumns   = []string{"driver_id", "given_name", "last_name"}
	LocationColumns = []string{"location_id", "loc_name"}
)
