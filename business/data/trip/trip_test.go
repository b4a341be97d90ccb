package trip

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/matryer/is"
)

func Test_LocalTime_JSON(t *testing.T) {
	is := is.New(t)

	original := MakeLocalTime(time.Date(2024, 6, 3, 7, 30, 0, 0, time.Local))

	data, err := json.Marshal(original)
	is.NoErr(err)
	is.Equal(string(data), `"2024-06-03T07:30:00"`)

	var parsed LocalTime
	is.NoErr(json.Unmarshal(data, &parsed))
	is.True(parsed.Equal(original.Time))
}

func Test_LocalTime_UnmarshalJSON_rejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a string", `12345`},
		{"wrong layout", `"2024-06-03 07:30:00"`},
		{"empty", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed LocalTime
			if err := json.Unmarshal([]byte(tt.data), &parsed); err == nil {
				t.Errorf("UnmarshalJSON(%s) expected error, got none", tt.data)
			}
		})
	}
}

func Test_LocalTime_HourOfDay(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want float64
	}{
		{"midnight", time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local), 0},
		{"half past seven", time.Date(2024, 6, 3, 7, 30, 0, 0, time.Local), 7.5},
		{"seconds are ignored", time.Date(2024, 6, 3, 14, 15, 59, 0, time.Local), 14.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeLocalTime(tt.time).HourOfDay(); got != tt.want {
				t.Errorf("HourOfDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Location_Coord(t *testing.T) {
	is := is.New(t)

	coord := Location{Lat: 34.05, Lng: -118.24}.Coord()
	is.Equal(coord.Lng(), -118.24)
	is.Equal(coord.Lat(), 34.05)
	is.Equal(coord, MakeCoord(-118.24, 34.05))
}
