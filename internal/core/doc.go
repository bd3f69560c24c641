// Package core provides the business logic for cleaning customer CSV data.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the CLI, and tests without
// modification.
//
// # Architecture
//
// A dataset flows strictly forward through three stages:
//
//	RecordSet --Detect--> IssueReport --Correct--> RecordSet --Enrich--> RecordSet
//
//   - Detection ([Detector]) reports missing values, malformed emails,
//     duplicate emails and non-canonical countries.
//   - Correction ([Corrector]) fills missing values, marks invalid emails,
//     drops duplicates and maps countries onto the canonical reference.
//   - Enrichment ([Enricher]) synthesizes replacement emails and assigns an
//     age segment.
//
// Each stage takes its input by pointer and returns a new [RecordSet]; no
// stage modifies what it was given. Column names shared by the stages live in
// schema.go.
//
// # Reference Data
//
// The canonical country list is a [CountryReference] loaded once from a
// text file and passed to the Corrector at construction. An optional YAML
// alias file ([CountryAliases]) resolves abbreviations such as "USA" before
// fuzzy matching with [TokenSetRatio].
//
// # Web Runs
//
// [Service] keeps uploaded datasets in memory as a [Run] and executes one
// stage at a time, enforcing stage order. Stage execution is bounded by a
// [RunLimiter], idle runs are evicted by the retention sweeper, and finished
// runs are recorded in a [HistoryStore].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL004: Missing required column
//   - FILE001-FILE006: File errors (size, format, encoding, empty)
//   - REF001: Country reference unavailable
//   - RUN001-RUN005: Run errors (not found, busy, stage order, cancelled)
package core
