package validator

import (
	"math"
	"strings"
	"unicode/utf8"
)

const maxNameBytes = 255

// ValidateFilename checks the name of an uploaded file. The name becomes
// (part of) an object key, so path separators are refused.
func ValidateFilename(v Validator, name string) {
	v.Check(name != "", "filename", "must be provided")
	v.Check(len(name) <= maxNameBytes, "filename", "must not be more than 255 bytes long")
	v.Check(!strings.ContainsAny(name, `/\`), "filename", "must not contain path separators")
	v.Check(name != "." && name != "..", "filename", "must be a file name")
	v.Check(utf8.ValidString(name), "filename", "must be valid utf-8")
}

// ValidateKey checks an object key received from a client.
func ValidateKey(v Validator, key string) {
	v.Check(key != "", "file_name", "must be provided")
	v.Check(len(key) <= maxNameBytes*2, "file_name", "must not be more than 510 bytes long")
}

// ValidateDepth checks a depth bound of a range selection.
func ValidateDepth(v Validator, field string, depth float64) {
	v.Check(!math.IsNaN(depth) && !math.IsInf(depth, 0), field, "must be a finite number")
}
