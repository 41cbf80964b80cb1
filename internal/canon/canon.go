package canon

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/hostprint/hostprint/internal/model"
)

// Separator joins canonical tokens. It is a single character not expected
// inside serialized values; values that do contain it are quoted by the
// canonical serialization before they reach a join.
const Separator = "|"

// seed is the djb2 initial state.
const seed = 5381

// Fold reduces a string to an unsigned 32-bit integer with the djb2
// multiply-and-add variant:
//
//	h = 5381
//	for each character code c: h = ((h << 5) + h + c) mod 2^32
//
// The string is processed as UTF-16 code units, one 16-bit-safe code at a
// time, which keeps identifiers bit-compatible with deployments that fold
// 16-bit character codes. No floating point, no locale-sensitive comparison:
// identical input yields identical output on every host.
func Fold(s string) uint32 {
	h := uint32(seed)
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) + h + uint32(c)
	}
	return h
}

// Format renders a folded hash as lowercase hexadecimal: no "0x" prefix,
// natural length. Changing this format would change every deployed
// identifier, so it is pinned by golden tests.
func Format(h uint32) string {
	return strconv.FormatUint(uint64(h), 16)
}

// HashString folds s and formats the result.
func HashString(s string) string {
	return Format(Fold(s))
}

// Join renders a feature set as its canonical string: each feature as
// "label:value", all features joined with Separator in the set's declared
// order.
func Join(features model.FeatureSet) string {
	var sb strings.Builder
	for i, f := range features {
		if i > 0 {
			sb.WriteString(Separator)
		}
		sb.WriteString(f.Label)
		sb.WriteByte(':')
		sb.WriteString(f.Value)
	}
	return sb.String()
}

// HashFeatures canonicalizes a feature set and folds it into a hash string.
// This is a pure function of the feature set content: no timestamps, no
// salts, no per-run state.
func HashFeatures(features model.FeatureSet) string {
	return HashString(Join(features))
}

// CombineHashes folds two or more per-engine hash strings into one composite
// hash. The hashes are joined with Separator in the caller's declared engine
// order and run through the identical fold used per engine.
func CombineHashes(hashes []string) string {
	return HashString(strings.Join(hashes, Separator))
}
