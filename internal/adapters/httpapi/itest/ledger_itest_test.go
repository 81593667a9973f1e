package itest

import (
	"net/http"
	"testing"
)

func trip(driver, pickupAt, dropoffAt, from, to string, passengers int, fare float64) map[string]any {
	return map[string]any{
		"driverName":      driver,
		"pickupDatetime":  pickupAt,
		"dropoffDatetime": dropoffAt,
		"passengerCount":  passengers,
		"pickupLocName":   from,
		"dropoffLocName":  to,
		"tripDistance":    3.5,
		"fareAmount":      fare,
	}
}

func TestLedger_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)

			// Nothing stored yet: reads answer empty, deletes miss.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/export", nil)
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[struct {
					Rows []map[string]any `json:"rows"`
				}](t, body)
				if len(got.Rows) != 0 {
					t.Fatalf("rows=%v", got.Rows)
				}

				status, body, _ = srv.doJSON(t, http.MethodDelete, "/trips/1", nil)
				requireErrorCode(t, status, body, http.StatusNotFound, "TRIP_NOT_FOUND")
			}

			// Batch ingest; the repeated record is skipped.
			{
				first := trip("Cruz, Juan", "08:00:00,01-01-2021", "08:20:00,01-01-2021", "Mall", "Airport", 2, 120)
				status, body, _ := srv.doJSON(t, http.MethodPost, "/trips/batch", map[string]any{"trips": []any{
					first,
					first,
					trip("santos, maria", "09:00:00,02-01-2021", "09:30:00,02-01-2021", "Airport", "Mall", 1, 200),
					trip("Cruz, Juan", "10:00:00,08-01-2021", "10:15:00,08-01-2021", "Mall", "Airport", 3, 80),
				}})
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[struct {
					TripIDs []int64 `json:"tripIds"`
				}](t, body)
				if len(got.TripIDs) != 3 || got.TripIDs[2] != 3 {
					t.Fatalf("tripIds=%v", got.TripIDs)
				}
			}

			// Same record through the single-trip endpoint is a conflict.
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/trips",
					trip("Cruz, Juan", "08:00:00,01-01-2021", "08:20:00,01-01-2021", "Mall", "Airport", 2, 120))
				requireErrorCode(t, status, body, http.StatusConflict, "DUPLICATE_TRIP")
			}

			// Search composes predicates left to right.
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/trips/search", map[string]any{"predicates": []any{
					map[string]any{"field": "driver_id", "value": 1},
					map[string]any{"field": "fare_amount", "value": []any{100, nil}},
				}})
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[struct {
					Trips []struct {
						TripID int64 `json:"trip_id"`
					} `json:"trips"`
				}](t, body)
				if len(got.Trips) != 1 || got.Trips[0].TripID != 1 {
					t.Fatalf("trips=%v", got.Trips)
				}
			}

			// Both Friday trips belong to the same driver; averages span observed days.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/statistics?stat=driver", nil)
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[map[string]map[string]float64](t, body)
				if got["Cruz, Juan"]["Friday"] != 1 || got["Santos, Maria"]["Saturday"] != 1 {
					t.Fatalf("driver stats=%v", got)
				}
			}

			// Mall -> Airport on two Fridays averages to one trip per day.
			{
				status, body, _ := srv.doJSON(t, http.MethodGet, "/odmatrix", nil)
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[struct {
					Rows    []string    `json:"rows"`
					Columns []string    `json:"columns"`
					Cells   [][]float64 `json:"cells"`
				}](t, body)
				if len(got.Rows) != 2 || got.Rows[0] != "Airport" || got.Columns[1] != "Mall" || got.Cells[0][1] != 1 {
					t.Fatalf("odmatrix=%+v", got)
				}
			}

			// Delete then verify the export shrinks.
			{
				status, body, _ := srv.doJSON(t, http.MethodDelete, "/trips/2", nil)
				requireStatus(t, status, body, http.StatusNoContent)

				status, body, _ = srv.doJSON(t, http.MethodGet, "/export", nil)
				requireStatus(t, status, body, http.StatusOK)
				got := mustUnmarshal[struct {
					Rows []struct {
						DriverLastName string `json:"driver_lastname"`
					} `json:"rows"`
				}](t, body)
				if len(got.Rows) != 2 || got.Rows[0].DriverLastName != "Cruz" {
					t.Fatalf("rows=%+v", got.Rows)
				}
			}
		})
	}
}
