// Package dataprep turns the harvested monthly tables into one complete,
// typed table ready for model training.
//
// # Stages
//
// The stages run strictly in order on a single consolidated table:
//
//  1. Consolidate: concatenate the harvested frames in harvest order. The
//     column set is the union across tables; columns absent from a table
//     are filled with missing values for that table's rows.
//  2. PruneColumns: drop every column whose missing ratio exceeds the
//     configured threshold. The target column is exempt.
//  3. CheckTargetGate: before any row is dropped, verify that rows missing
//     the target are rare overall and not concentrated in any group of the
//     configured gate dimensions.
//  4. DropRowsMissingTarget: remove the rows the gate just vetted.
//  5. AssertComplete: prove the table has no missing values left.
//  6. Normalize: parse every retained column into its declared type and
//     emit an Arrow record.
//
// # Failure Policy
//
// Every stage fails the run on the first problem it finds. Nothing is
// imputed, coerced leniently or skipped: a surprising input is a bug in
// the input, not something to paper over.
//
// # Ordering
//
// Row order is preserved end to end: rows appear in archive name order,
// then member order within an archive, then line order within a member.
// Dropping rows never reorders the survivors.
package dataprep
