// Package schema defines the column dictionary for the BTS Reporting Carrier
// On-Time Performance dataset and its mapping onto Arrow types.
//
// # Source Data Conventions
//
// The upstream publisher ships one zip archive per month, each carrying its
// data as CSV with a header row. The feed has a few quirks the rest of the
// pipeline relies on this package to describe:
//
//  1. Every data line ends with a trailing comma, which readers surface as an
//     extra column with an empty name and no values. It is never declared
//     here; the missing-data rules remove it before typing happens.
//  2. Missing values are encoded as empty fields. There are no sentinel
//     strings like "NULL" or "-".
//  3. Clock times (DepTime, WheelsOff, ...) are hhmm numerics, not
//     timestamps. Scheduled times are always present; actual times are
//     absent for flights that never operated.
//  4. Indicator columns (Cancelled, Diverted, ArrDel15, ...) are published
//     as 0.00/1.00 numerics.
//  5. FlightDate is the only calendar value, formatted YYYY-MM-DD.
//
// # Kinds
//
// Each declared column carries a Kind describing how its text must be
// interpreted: KindInt, KindFloat, KindString or KindDate. Kinds are
// assigned from the publisher's record layout, not inferred from samples,
// so a column parses the same way in every month.
//
// # Arrow Mapping
//
// Fields maps a retained column list onto an Arrow schema:
//
//	fields, err := schema.Fields([]string{"Year", "FlightDate", "ArrDel15"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// KindInt becomes int64, KindFloat float64, KindString utf8 and KindDate
// date32. All fields are non-nullable because typing runs after the
// missing-data rules have proven the table complete.
package schema
