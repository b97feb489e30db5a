// Package docscan classifies uploaded agricultural documents by scanning
// their text for Mexican agency names and farming vocabulary. It is used when
// an upload does not declare a document type.
package docscan

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Document types.
const (
	TypeIdentity      = "identity"
	TypeCertification = "certification"
	TypeWarehouse     = "warehouse"
	TypeCrop          = "crop"
	TypeUnknown       = "unknown"
)

// ValidType reports whether t is a recognized document type. "unknown" is
// not accepted as a declared type.
func ValidType(t string) bool {
	switch t {
	case TypeIdentity, TypeCertification, TypeWarehouse, TypeCrop:
		return true
	}
	return false
}

// Keyword tables, checked in order; the first category with a hit wins.
// Matching is accent-insensitive, so each word is listed once in its
// canonical Spanish spelling.
var (
	identityWords      = []string{"ine", "identificación", "curp", "rfc"}
	certificationWords = []string{"sagarpa", "senasica", "certificación", "certificado", "orgánico", "bpa"}
	warehouseWords     = []string{"almacén", "bodega", "warehouse", "depósito"}
	cropWords          = []string{"cultivo", "cosecha", "siembra", "semilla"}
)

var folder = cases.Fold()

// normalize case-folds s and strips combining marks, so "Certificación" and
// "certificacion" compare equal. The chain is built per call: chained
// transformers carry internal buffers and are not safe to share.
func normalize(s string) string {
	folded := folder.String(s)
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(strip, folded)
	if err != nil {
		return folded
	}
	return out
}

// Detect classifies content into one of the document types, or TypeUnknown
// when nothing matches. Matching ignores case and diacritics: scanned uploads
// often arrive with accents stripped.
func Detect(content string) string {
	haystack := normalize(content)

	for _, tab := range []struct {
		typ   string
		words []string
	}{
		{TypeIdentity, identityWords},
		{TypeCertification, certificationWords},
		{TypeWarehouse, warehouseWords},
		{TypeCrop, cropWords},
	} {
		for _, w := range tab.words {
			if strings.Contains(haystack, normalize(w)) {
				return tab.typ
			}
		}
	}
	return TypeUnknown
}
