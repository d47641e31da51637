package providers

import "strings"

// CarrierRule says whether a carrier accepts unaccompanied minors and pets in cabin.
type CarrierRule struct {
	UMOk  bool
	PetOk bool
}

var carrierRules = map[string]CarrierRule{
	"AF": {UMOk: true, PetOk: true},
	"KL": {UMOk: true, PetOk: true},
	"LH": {UMOk: true, PetOk: true},
	"IB": {UMOk: false, PetOk: true},
	"BA": {UMOk: true, PetOk: true},
	"VY": {UMOk: true, PetOk: false},
	"U2": {UMOk: true, PetOk: true},
	"HV": {UMOk: true, PetOk: false},
	"FR": {UMOk: false, PetOk: false},
	"TO": {UMOk: true, PetOk: false},
}

// RuleFor looks up a carrier by IATA code.
func RuleFor(carrier string) (CarrierRule, bool) {
	r, ok := carrierRules[strings.ToUpper(strings.TrimSpace(carrier))]
	return r, ok
}

// applyRules fills flags the upstream left empty. Unknown carriers stay unset.
func applyRules(f *RawFlight) {
	r, ok := RuleFor(f.Carrier)
	if !ok {
		return
	}
	if f.UMOk == nil {
		um := r.UMOk
		f.UMOk = &um
	}
	if f.PetOk == nil {
		pet := r.PetOk
		f.PetOk = &pet
	}
}
