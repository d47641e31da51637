// Package criteria turns loosely typed search filters into a canonical, hashable record.
//
// Normalize never fails and never reads the clock or does I/O: the same input always
// yields the same Criteria, and the same Criteria always serializes to the same bytes.
package criteria

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

type Cabin string

const (
	CabinUnset    Cabin = ""
	CabinEconomy  Cabin = "economy"
	CabinPremium  Cabin = "premium"
	CabinBusiness Cabin = "business"
	CabinFirst    Cabin = "first"
)

const (
	DefaultCurrency = "EUR"
	DefaultCabin    = CabinEconomy
)

// unsetToken is how Values renders CabinUnset so that it normalizes back to CabinUnset.
const unsetToken = "unset"

// Criteria is the normalized filter set. Field order is the serialization order.
type Criteria struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Adults       int    `json:"adults"`
	ChildrenAges []int  `json:"childrenAges"`
	Infants      int    `json:"infants"`
	UM           bool   `json:"um"`
	UMAges       []int  `json:"umAges"`
	Pets         bool   `json:"pets"`
	BagsChecked  int    `json:"bagsSoute"`
	BagsCabin    int    `json:"bagsCabin"`
	Cabin        Cabin  `json:"cabin"`
	Direct       bool   `json:"direct"`
	FareType     string `json:"fareType"`
	Resident     bool   `json:"resident"`
	Currency     string `json:"currency"`
}

// Query field names understood by Normalize.
const (
	FieldOrigin       = "origin"
	FieldDestination  = "destination"
	FieldAdults       = "adults"
	FieldChildrenAges = "childrenAges"
	FieldInfants      = "infants"
	FieldUM           = "um"
	FieldUMAges       = "umAges"
	FieldPets         = "pets"
	FieldBagsChecked  = "bagsSoute"
	FieldBagsCabin    = "bagsCabin"
	FieldCabin        = "cabin"
	FieldDirect       = "direct"
	FieldFareType     = "fareType"
	FieldResident     = "resident"
	FieldCurrency     = "currency"
)

var queryFields = []string{
	FieldOrigin, FieldDestination, FieldAdults, FieldChildrenAges, FieldInfants,
	FieldUM, FieldUMAges, FieldPets, FieldBagsChecked, FieldBagsCabin,
	FieldCabin, FieldDirect, FieldFareType, FieldResident, FieldCurrency,
}

// Default is what an empty filter set normalizes to.
func Default() Criteria {
	return Normalize(nil)
}

// Normalize builds a Criteria from arbitrary filter values. Unknown keys are ignored,
// malformed numbers fall back to their default, a missing cabin becomes DefaultCabin and
// an unrecognized one becomes CabinUnset.
func Normalize(in map[string]any) Criteria {
	return Criteria{
		Origin:       strings.ToUpper(text(in, FieldOrigin)),
		Destination:  strings.ToUpper(text(in, FieldDestination)),
		Adults:       max(1, integer(in, FieldAdults, 1, 0)),
		ChildrenAges: ages(in[FieldChildrenAges]),
		Infants:      integer(in, FieldInfants, 0, 0),
		UM:           flag(in[FieldUM]),
		UMAges:       ages(in[FieldUMAges]),
		Pets:         flag(in[FieldPets]),
		BagsChecked:  integer(in, FieldBagsChecked, 0, 0),
		BagsCabin:    integer(in, FieldBagsCabin, 0, 0),
		Cabin:        cabin(text(in, FieldCabin)),
		Direct:       flag(in[FieldDirect]),
		FareType:     text(in, FieldFareType),
		Resident:     flag(in[FieldResident]),
		Currency:     currency(text(in, FieldCurrency)),
	}
}

// FromQuery normalizes the recognized fields of a URL query. Repeated keys use the first value.
func FromQuery(q url.Values) Criteria {
	in := make(map[string]any, len(queryFields))
	for _, name := range queryFields {
		if vs, ok := q[name]; ok && len(vs) > 0 {
			in[name] = vs[0]
		}
	}
	return Normalize(in)
}

// ParseCabin folds case and spelling variants onto the cabin enum.
func ParseCabin(s string) Cabin {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eco", "economy":
		return CabinEconomy
	case "premium", "premium_economy", "premium-economy":
		return CabinPremium
	case "business":
		return CabinBusiness
	case "first":
		return CabinFirst
	default:
		return CabinUnset
	}
}

// Values renders c back into the loose input form. Normalize(c.Values()) == c.
func (c Criteria) Values() map[string]any {
	return map[string]any{
		FieldOrigin:       c.Origin,
		FieldDestination:  c.Destination,
		FieldAdults:       c.Adults,
		FieldChildrenAges: joinInts(c.ChildrenAges),
		FieldInfants:      c.Infants,
		FieldUM:           boolInt(c.UM),
		FieldUMAges:       joinInts(c.UMAges),
		FieldPets:         boolInt(c.Pets),
		FieldBagsChecked:  c.BagsChecked,
		FieldBagsCabin:    c.BagsCabin,
		FieldCabin:        cabinValue(c.Cabin),
		FieldDirect:       boolInt(c.Direct),
		FieldFareType:     c.FareType,
		FieldResident:     boolInt(c.Resident),
		FieldCurrency:     c.Currency,
	}
}

// Canonical is the stable serialized form used for hashing.
func (c Criteria) Canonical() []byte {
	// Only ints, bools, strings and int slices: Marshal cannot fail.
	b, _ := json.Marshal(c)
	return b
}

// Hash is the hex SHA-256 of the canonical form.
func (c Criteria) Hash() string {
	sum := sha256.Sum256(c.Canonical())
	return hex.EncodeToString(sum[:])
}

// Pairs is "k=v" for every field, sorted by key and joined with '&'.
func (c Criteria) Pairs() string {
	values := c.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return strings.Join(parts, "&")
}

// Children counts the children ages that fares treat as a child (2 to 11 inclusive).
func (c Criteria) Children() int {
	n := 0
	for _, age := range c.ChildrenAges {
		if age >= 2 && age <= 11 {
			n++
		}
	}
	return n
}

func text(in map[string]any, key string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func integer(in map[string]any, key string, def, minimum int) int {
	v, ok := in[key]
	if !ok || v == nil {
		return max(minimum, def)
	}
	n, ok := toInt(v)
	if !ok {
		n = def
	}
	return max(minimum, n)
}

func toInt(v any) (int, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
	if _, ok := v.(bool); ok {
		return 0, false
	}
	n, err := cast.ToIntE(v)
	return n, err == nil
}

// flag accepts "1", "true", "True", the number 1 and the boolean true.
// JSON bodies decode 1 as float64, so floats count when they are exactly 1.
func flag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || t == "true" || t == "True"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(t)
		return err == nil && n == 1
	case float32, float64:
		f, err := cast.ToFloat64E(t)
		return err == nil && f == 1
	default:
		return false
	}
}

// ages parses a CSV string or a list, dropping anything that is not a non-negative integer.
// The result is sorted and never nil.
func ages(v any) []int {
	var tokens []any
	switch t := v.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(t, ",") {
			tokens = append(tokens, part)
		}
	case []string:
		for _, part := range t {
			tokens = append(tokens, part)
		}
	case []int:
		for _, n := range t {
			tokens = append(tokens, n)
		}
	case []any:
		tokens = t
	default:
		tokens = []any{t}
	}

	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		n, ok := toInt(tok)
		if !ok || n < 0 {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func cabin(s string) Cabin {
	if s == "" {
		return DefaultCabin
	}
	return ParseCabin(s)
}

func cabinValue(c Cabin) string {
	if c == CabinUnset {
		return unsetToken
	}
	return string(c)
}

func currency(s string) string {
	if s == "" {
		return DefaultCurrency
	}
	return strings.ToUpper(s)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
