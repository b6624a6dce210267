package flight

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// datasetColumns are the header names ReadFlightsCSV requires. Other
// columns are ignored, so wider flight exports load as they are.
var datasetColumns = []string{
	"fid", "day_of_month", "carrier_id", "flight_num",
	"origin_city", "dest_city", "actual_time", "capacity", "price", "canceled",
}

// ReadFlightsCSV parses a headered CSV of flights.
func ReadFlightsCSV(r io.Reader) ([]Flight, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range datasetColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var flights []Flight
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return flights, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		f, err := parseFlightRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		flights = append(flights, f)
	}
}

func parseFlightRecord(rec []string, idx map[string]int) (Flight, error) {
	var (
		f    Flight
		errs []error
	)
	field := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }
	num := func(name string) int64 {
		v, err := strconv.ParseInt(field(name), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}

	f.FID = num("fid")
	f.DayOfMonth = int(num("day_of_month"))
	f.CarrierID = field("carrier_id")
	f.FlightNum = field("flight_num")
	f.OriginCity = field("origin_city")
	f.DestCity = field("dest_city")
	f.Duration = int(num("actual_time"))
	f.Capacity = int(num("capacity"))
	f.Price = num("price")
	f.Canceled = num("canceled") != 0

	if f.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity: negative value %d", f.Capacity))
	}
	return f, errors.Join(errs...)
}
