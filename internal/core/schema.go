package core

import "strings"

// Column names shared by every stage.
const (
	ColName        = "name"
	ColEmail       = "email"
	ColCountry     = "country"
	ColAge         = "age"
	ColEmailStatus = "email_status"
	ColSegment     = "segment"
)

// RequiredColumns lists the columns a record set must carry, in scan order.
var RequiredColumns = []string{ColName, ColEmail, ColCountry, ColAge}

// DerivedColumns are appended to the output by Correction and Enrichment.
var DerivedColumns = []string{ColEmailStatus, ColSegment}

// EmailStatus tracks what happened to a row's email during the pipeline.
type EmailStatus string

const (
	EmailStatusUnset     EmailStatus = ""
	EmailStatusInvalid   EmailStatus = "invalid"
	EmailStatusGenerated EmailStatus = "generated"
)

// Segment is the age bracket assigned during Enrichment.
type Segment string

const (
	SegmentTeen       Segment = "teen"
	SegmentYoungAdult Segment = "young_adult"
	SegmentAdult      Segment = "adult"
	SegmentSenior     Segment = "senior"
	SegmentUnknown    Segment = "unknown"
)

// UnknownCountry replaces country values that match no canonical name.
const UnknownCountry = "UNKNOWN_COUNTRY"

// DefaultEmailDomain is appended to synthesized addresses.
const DefaultEmailDomain = "example.com"

// DefaultMatchThreshold is the minimum fuzzy score accepted for a country.
const DefaultMatchThreshold = 80

// Placeholder returns the sentinel substituted for a missing value in column.
func Placeholder(column string) string {
	return "UNKNOWN_" + strings.ToUpper(column)
}

// missingTokens are cell values read as absent.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"#N/A": true,
}

// IsMissingToken reports whether a cleaned cell value stands for "no value".
func IsMissingToken(s string) bool {
	return missingTokens[s]
}
