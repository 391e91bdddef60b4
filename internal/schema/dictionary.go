package schema

import (
	"fmt"
	"sort"

	"github.com/apache/arrow/go/v14/arrow"
)

// Kind classifies how a column's text representation must be parsed.
type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindDate   Kind = "date"
)

const (
	// TargetColumn is the arrival delay indicator the downstream model predicts.
	TargetColumn = "ArrDel15"

	// DateLayout is the only calendar format the feed uses.
	DateLayout = "2006-01-02"
)

// dictionary declares every column the publisher documents for the
// on-time performance feed, in record-layout order groups.
var dictionary = map[string]Kind{
	// Time period
	"Year":       KindInt,
	"Quarter":    KindInt,
	"Month":      KindInt,
	"DayofMonth": KindInt,
	"DayOfWeek":  KindInt,
	"FlightDate": KindDate,

	// Airline
	"Reporting_Airline":               KindString,
	"DOT_ID_Reporting_Airline":        KindInt,
	"IATA_CODE_Reporting_Airline":     KindString,
	"Tail_Number":                     KindString,
	"Flight_Number_Reporting_Airline": KindInt,

	// Origin
	"OriginAirportID":    KindInt,
	"OriginAirportSeqID": KindInt,
	"OriginCityMarketID": KindInt,
	"Origin":             KindString,
	"OriginCityName":     KindString,
	"OriginState":        KindString,
	"OriginStateFips":    KindInt,
	"OriginStateName":    KindString,
	"OriginWac":          KindInt,

	// Destination
	"DestAirportID":    KindInt,
	"DestAirportSeqID": KindInt,
	"DestCityMarketID": KindInt,
	"Dest":             KindString,
	"DestCityName":     KindString,
	"DestState":        KindString,
	"DestStateFips":    KindInt,
	"DestStateName":    KindString,
	"DestWac":          KindInt,

	// Departure performance
	"CRSDepTime":           KindInt,
	"DepTime":              KindFloat,
	"DepDelay":             KindFloat,
	"DepDelayMinutes":      KindFloat,
	"DepDel15":             KindFloat,
	"DepartureDelayGroups": KindFloat,
	"DepTimeBlk":           KindString,
	"TaxiOut":              KindFloat,
	"WheelsOff":            KindFloat,

	// Arrival performance
	"WheelsOn":           KindFloat,
	"TaxiIn":             KindFloat,
	"CRSArrTime":         KindInt,
	"ArrTime":            KindFloat,
	"ArrDelay":           KindFloat,
	"ArrDelayMinutes":    KindFloat,
	"ArrDel15":           KindFloat,
	"ArrivalDelayGroups": KindFloat,
	"ArrTimeBlk":         KindString,

	// Cancellations and diversions
	"Cancelled":        KindFloat,
	"CancellationCode": KindString,
	"Diverted":         KindFloat,

	// Flight summaries
	"CRSElapsedTime":    KindFloat,
	"ActualElapsedTime": KindFloat,
	"AirTime":           KindFloat,
	"Flights":           KindFloat,
	"Distance":          KindFloat,
	"DistanceGroup":     KindInt,

	// Cause of delay
	"CarrierDelay":      KindFloat,
	"WeatherDelay":      KindFloat,
	"NASDelay":          KindFloat,
	"SecurityDelay":     KindFloat,
	"LateAircraftDelay": KindFloat,

	// Gate return
	"FirstDepTime":    KindFloat,
	"TotalAddGTime":   KindFloat,
	"LongestAddGTime": KindFloat,

	// Diverted airport information
	"DivAirportLandings":   KindInt,
	"DivReachedDest":       KindFloat,
	"DivActualElapsedTime": KindFloat,
	"DivArrDelay":          KindFloat,
	"DivDistance":          KindFloat,
}

func init() {
	// The diverted-leg block repeats five times with identical layout.
	for i := 1; i <= 5; i++ {
		dictionary[fmt.Sprintf("Div%dAirport", i)] = KindString
		dictionary[fmt.Sprintf("Div%dAirportID", i)] = KindInt
		dictionary[fmt.Sprintf("Div%dAirportSeqID", i)] = KindInt
		dictionary[fmt.Sprintf("Div%dWheelsOn", i)] = KindFloat
		dictionary[fmt.Sprintf("Div%dTotalGTime", i)] = KindFloat
		dictionary[fmt.Sprintf("Div%dLongestGTime", i)] = KindFloat
		dictionary[fmt.Sprintf("Div%dWheelsOff", i)] = KindFloat
		dictionary[fmt.Sprintf("Div%dTailNum", i)] = KindString
	}
}

// Lookup returns the declared kind for a column name.
func Lookup(name string) (Kind, bool) {
	k, ok := dictionary[name]
	return k, ok
}

// Count reports how many columns the dictionary declares.
func Count() int {
	return len(dictionary)
}

// Columns returns all declared column names in lexical order.
func Columns() []string {
	names := make([]string, 0, len(dictionary))
	for name := range dictionary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArrowType maps a kind onto its storage type.
func ArrowType(k Kind) arrow.DataType {
	switch k {
	case KindInt:
		return arrow.PrimitiveTypes.Int64
	case KindFloat:
		return arrow.PrimitiveTypes.Float64
	case KindDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

// Fields maps retained column names onto Arrow fields, preserving order.
// Every name must be declared in the dictionary; typing an undocumented
// column would silently guess, so it is an error instead.
func Fields(names []string) ([]arrow.Field, error) {
	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		kind, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("column %q is not declared in the dataset dictionary", name)
		}
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     ArrowType(kind),
			Nullable: false,
		})
	}
	return fields, nil
}
