package flights

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/you/go-fare-calendar/internal/providers"
)

func ptr[T any](v T) *T { return &v }

func TestSanitizePrice(t *testing.T) {
	valid := map[string]int{
		"120":     120,
		"99.5":    100,
		"99.49":   99,
		" 42.0 ":  42,
		"0.5":     1,
		"1e2":     100,
		"143.200": 143,
	}
	for in, want := range valid {
		got, ok := SanitizePrice(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}

	invalid := []string{"", "abc", "0", "-5", "NaN", "nan", "Inf", "-Inf", "0.2", "12,50",
		strconv.FormatFloat(math.MaxFloat64, 'f', -1, 64) + "0"}
	for _, in := range invalid {
		_, ok := SanitizePrice(in)
		require.False(t, ok, in)
	}
}

func TestNormalize_DropsBadPrice(t *testing.T) {
	_, ok := Normalize(providers.RawFlight{Price: "free", Carrier: "AF"})
	require.False(t, ok)
}

func TestNormalize_DefaultsAndOptionals(t *testing.T) {
	f, ok := Normalize(providers.RawFlight{Price: "88.8"})
	require.True(t, ok)
	require.Equal(t, 89, f.Price)
	require.Nil(t, f.Carrier)
	require.Nil(t, f.Stops)
	require.Nil(t, f.DepartISO)
	require.Nil(t, f.Duration)
	require.Nil(t, f.DurationMinutes)
	require.True(t, f.UMOk)
	require.True(t, f.PetOk)

	f, ok = Normalize(providers.RawFlight{Price: "10", UMOk: ptr(false), PetOk: ptr(true), Stops: ptr(-1)})
	require.True(t, ok)
	require.False(t, f.UMOk)
	require.True(t, f.PetOk)
	require.Nil(t, f.Stops)
}

func TestNormalize_DurationPriority(t *testing.T) {
	base := providers.RawFlight{
		Price:     "100",
		DepartISO: "2025-09-10T08:00:00Z",
		ArriveISO: "2025-09-10T10:30:00Z",
	}

	explicit := base
	explicit.DurationMinutes = ptr(95)
	explicit.DurationISO = "PT2H"
	f, _ := Normalize(explicit)
	require.Equal(t, 95, *f.DurationMinutes)
	require.Equal(t, "PT1H35M", *f.Duration)

	iso := base
	iso.DurationISO = "PT2H10M"
	f, _ = Normalize(iso)
	require.Equal(t, 130, *f.DurationMinutes)

	stamps := base
	stamps.DurationMinutes = ptr(0)
	f, _ = Normalize(stamps)
	require.Equal(t, 150, *f.DurationMinutes)
	require.Equal(t, "PT2H30M", *f.Duration)

	same := base
	same.ArriveISO = same.DepartISO
	f, _ = Normalize(same)
	require.Equal(t, 1, *f.DurationMinutes)

	backwards := base
	backwards.ArriveISO = "2025-09-10T07:00:00Z"
	f, _ = Normalize(backwards)
	require.Nil(t, f.DurationMinutes)

	naive := providers.RawFlight{Price: "1", DepartISO: "2025-09-10T08:00:00", ArriveISO: "2025-09-10T09:05:00"}
	f, _ = Normalize(naive)
	require.Equal(t, 65, *f.DurationMinutes)
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"PT2H10M", 130, true},
		{"PT150M", 150, true},
		{"PT3H", 180, true},
		{"PT1H5M30S", 65, true},
		{"PT30S", 0, false},
		{"P1DT2H", 0, false},
		{"2H10M", 0, false},
		{"", 0, false},
		{"PTHM", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseISODuration(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeAll_SortedAndFiltered(t *testing.T) {
	raws := []providers.RawFlight{
		{Price: "300", Carrier: "AF"},
		{Price: "-1", Carrier: "XX"},
		{Price: "120.4", Carrier: "VY"},
		{Price: "garbage"},
		{Price: "120.2", Carrier: "IB"},
		{Price: "95", Carrier: "U2"},
	}
	got := NormalizeAll(raws)
	require.Len(t, got, 4)

	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].Price, got[i].Price)
	}
	for _, f := range got {
		require.Greater(t, f.Price, 0)
	}
	require.Equal(t, "U2", *got[0].Carrier)
	require.Equal(t, "VY", *got[1].Carrier, "equal prices keep provider order")
	require.Equal(t, "IB", *got[2].Carrier)

	require.Equal(t, []Flight{}, NormalizeAll(nil))
}

func TestMinPrice(t *testing.T) {
	require.Nil(t, MinPrice(nil))
	require.Equal(t, 80, *MinPrice([]Flight{{Price: 120}, {Price: 80}, {Price: 95}}))
}

func TestFlight_WireFormat(t *testing.T) {
	f, ok := Normalize(providers.RawFlight{Price: "95", Carrier: "AF", Stops: ptr(0), DurationMinutes: ptr(110)})
	require.True(t, ok)

	b, err := json.Marshal(f)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"prix": 95, "compagnie": "AF", "escales": 0, "um_ok": true, "animal_ok": true,
		"departISO": null, "arriveeISO": null, "duree": "PT1H50M", "duree_minutes": 110
	}`, string(b))
}
