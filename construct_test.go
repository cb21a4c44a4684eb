package stix_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/stix"
)

var killChainPhaseSchema = stix.MustSchema("KillChainPhase",
	stix.F("kill_chain_name", stix.NewProperty(stix.Required())),
	stix.F("phase_name", stix.NewProperty(stix.Required())),
)

func killChainPhase() *stix.Schema { return killChainPhaseSchema }

func fixClock(t *testing.T, ts time.Time) {
	t.Helper()
	stix.SetClock(stix.ClockFunc(func() time.Time { return ts }))
	t.Cleanup(stix.UseSystemClock)
}

func TestConstruct_MissingRequired(t *testing.T) {
	s := killChainPhase()
	cases := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"none", map[string]any{}, "Missing required field(s) for KillChainPhase: (kill_chain_name, phase_name)."},
		{"nil map", nil, "Missing required field(s) for KillChainPhase: (kill_chain_name, phase_name)."},
		{"chain name", map[string]any{"phase_name": "weaponization"}, "Missing required field(s) for KillChainPhase: (kill_chain_name)."},
		{"phase name", map[string]any{"kill_chain_name": "lockheed-martin-cyber-kill-chain"}, "Missing required field(s) for KillChainPhase: (phase_name)."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := stix.Construct(s, "KillChainPhase", tc.values)
			if r != nil {
				t.Fatalf("expected no record on failure")
			}
			var me *stix.MissingFieldError
			if !errors.As(err, &me) {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("message mismatch:\n got: %s\nwant: %s", err.Error(), tc.want)
			}
		})
	}
}

func TestConstruct_MissingSortedRegardlessOfDeclarationOrder(t *testing.T) {
	s := stix.MustSchema("T",
		stix.F("zeta", stix.NewProperty(stix.Required())),
		stix.F("alpha", stix.NewProperty(stix.Required())),
		stix.F("mid", stix.NewProperty(stix.Required())),
	)
	_, err := stix.New(s, nil)
	if err == nil || err.Error() != "Missing required field(s) for T: (alpha, mid, zeta)." {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConstruct_UnexpectedFields(t *testing.T) {
	s := killChainPhase()
	_, err := stix.New(s, map[string]any{
		"kill_chain_name": "foo",
		"phase_name":      "pre-attack",
		"zz":              1,
		"aa":              2,
	})
	var ue *stix.UnexpectedFieldError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedFieldError, got %v", err)
	}
	if !slices.Equal(ue.Fields, []string{"aa", "zz"}) {
		t.Fatalf("expected sorted extra fields, got %v", ue.Fields)
	}
	if err.Error() != "Unexpected field(s) for KillChainPhase: (aa, zz)." {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if ce, ok := stix.AsConstructError(err); !ok || ce.Code() != stix.CodeUnexpectedField {
		t.Fatalf("expected code %s, got %v", stix.CodeUnexpectedField, ce)
	}
}

func TestConstruct_UnexpectedCheckedBeforeMissing(t *testing.T) {
	_, err := stix.New(killChainPhase(), map[string]any{"bogus": true})
	var ue *stix.UnexpectedFieldError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedFieldError first, got %v", err)
	}
}

func TestConstruct_InvalidValue(t *testing.T) {
	s := stix.MustSchema("Indicator",
		stix.F("type", stix.TypeProperty("indicator")),
		stix.F("name", stix.StringProperty()),
	)
	_, err := stix.New(s, map[string]any{"type": "malware"})
	var ie *stix.InvalidValueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvalidValueError, got %v", err)
	}
	if ie.Field != "type" {
		t.Fatalf("expected field=type, got %s", ie.Field)
	}
	if want := "Invalid value for Indicator 'type': does not match expected type name 'indicator'."; err.Error() != want {
		t.Fatalf("message mismatch:\n got: %s\nwant: %s", err.Error(), want)
	}
	var ve *stix.ValueError
	if !errors.As(err, &ve) || ve.Reason != "does not match expected type name 'indicator'" {
		t.Fatalf("expected wrapped ValueError, got %v", err)
	}

	_, err = stix.New(s, map[string]any{"name": 7})
	if err == nil || err.Error() != "Invalid value for Indicator 'name': must be a string." {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConstruct_TypeNameOverride(t *testing.T) {
	_, err := stix.Construct(killChainPhase(), "Phase", nil)
	if err == nil || err.Error() != "Missing required field(s) for Phase: (kill_chain_name, phase_name)." {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConstruct_AppliesAndValidatesDefaults(t *testing.T) {
	s := stix.MustSchema("T",
		stix.F("type", stix.TypeProperty("t")),
		stix.F("count", stix.NewProperty(stix.DefaultValue(3))),
		stix.F("note", stix.StringProperty()),
	)
	r, err := stix.New(s, nil)
	if err != nil {
		t.Fatalf("construct err: %v", err)
	}
	if r.Value("type") != "t" || r.Value("count") != 3 {
		t.Fatalf("expected defaults applied, got type=%v count=%v", r.Value("type"), r.Value("count"))
	}
	if r.Has("note") || r.Value("note") != nil {
		t.Fatalf("expected note absent")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", r.Len())
	}

	bad := stix.MustSchema("T", stix.F("name", stix.StringProperty(stix.DefaultValue(1))))
	if _, err := stix.New(bad, nil); err == nil || err.Error() != "Invalid value for T 'name': must be a string." {
		t.Fatalf("expected invalid default to be rejected, got %v", err)
	}
}

func TestConstruct_DefaultError(t *testing.T) {
	boom := errors.New("generator unavailable")
	s := stix.MustSchema("T", stix.F("x", stix.NewProperty(stix.WithDefault(func(*stix.BuildContext) (any, error) {
		return nil, boom
	}))))
	_, err := stix.New(s, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped generator error, got %v", err)
	}
	if err.Error() != "Invalid value for T 'x': generator unavailable." {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestConstruct_SharedTimestamp(t *testing.T) {
	calls := 0
	base := time.Date(2017, 1, 17, 13, 49, 53, 935_000_000, time.UTC)
	stix.SetClock(stix.ClockFunc(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}))
	t.Cleanup(stix.UseSystemClock)

	s := stix.MustSchema("T",
		stix.F("created", stix.TimestampProperty(stix.DefaultNow())),
		stix.F("modified", stix.TimestampProperty(stix.DefaultNow())),
		stix.F("valid_from", stix.TimestampProperty(stix.DefaultNow())),
	)
	r, err := stix.New(s, nil)
	if err != nil {
		t.Fatalf("construct err: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the clock to be read once per construction, got %d", calls)
	}
	c := r.Value("created").(time.Time)
	if !c.Equal(r.Value("modified").(time.Time)) || !c.Equal(r.Value("valid_from").(time.Time)) {
		t.Fatalf("expected identical now defaults, got %v", r)
	}

	r2, _ := stix.New(s, nil)
	if calls != 2 {
		t.Fatalf("expected a fresh timestamp per construction, got %d reads", calls)
	}
	if r2.Value("created").(time.Time).Equal(c) {
		t.Fatalf("expected second construction to observe a new time")
	}
}

func TestConstruct_SuppliedValuePreventsDefault(t *testing.T) {
	fixClock(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	s := stix.MustSchema("T", stix.F("created", stix.TimestampProperty(stix.DefaultNow())))
	r, err := stix.New(s, map[string]any{"created": "2016-04-06T20:03:00Z"})
	if err != nil {
		t.Fatalf("construct err: %v", err)
	}
	if got := r.Value("created").(time.Time); !got.Equal(time.Date(2016, 4, 6, 20, 3, 0, 0, time.UTC)) {
		t.Fatalf("expected supplied value, got %v", got)
	}
}

func TestConstruct_DeterministicID(t *testing.T) {
	s := stix.MustSchema("Identity",
		stix.F("id", stix.IdentifierProperty("identity", stix.DeterministicID("name", "identity_class"))),
		stix.F("name", stix.StringProperty(stix.Required())),
		stix.F("identity_class", stix.StringProperty()),
	)
	a := stix.MustNew(s, map[string]any{"name": "ACME", "identity_class": "organization"})
	b := stix.MustNew(s, map[string]any{"identity_class": "organization", "name": "ACME"})
	c := stix.MustNew(s, map[string]any{"name": "ACME Corp", "identity_class": "organization"})
	if a.Value("id") != b.Value("id") {
		t.Fatalf("expected equal content to produce equal ids: %v vs %v", a.Value("id"), b.Value("id"))
	}
	if a.Value("id") == c.Value("id") {
		t.Fatalf("expected different content to produce different ids")
	}
	explicit := stix.MustNew(s, map[string]any{"name": "ACME", "id": "identity--90aaca8a-1110-5d32-956d-ac2f34a1bd8c"})
	if explicit.Value("id") != "identity--90aaca8a-1110-5d32-956d-ac2f34a1bd8c" {
		t.Fatalf("expected supplied id to win, got %v", explicit.Value("id"))
	}
}

func TestRecord_ReadOnlyAccess(t *testing.T) {
	s := stix.MustSchema("T",
		stix.F("b", stix.NewProperty()),
		stix.F("a", stix.NewProperty()),
		stix.F("c", stix.NewProperty()),
	)
	r := stix.MustNew(s, map[string]any{"a": 1, "b": 2})
	if !slices.Equal(r.Keys(), []string{"b", "a"}) {
		t.Fatalf("expected schema order, got %v", r.Keys())
	}
	if v, ok := r.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v, %v", v, ok)
	}
	if v, ok := r.Get("c"); ok || v != nil {
		t.Fatalf("expected c absent, got %v, %v", v, ok)
	}
	var seen []string
	for k := range r.All() {
		seen = append(seen, k)
	}
	if !slices.Equal(seen, r.Keys()) {
		t.Fatalf("expected All to follow Keys order, got %v", seen)
	}
	if r.Schema() != s || r.TypeName() != "T" {
		t.Fatalf("expected record bound to its schema")
	}
}

func TestRecord_Immutable(t *testing.T) {
	r := stix.MustNew(killChainPhase(), map[string]any{
		"kill_chain_name": "foo",
		"phase_name":      "pre-attack",
	})
	for _, err := range []error{
		r.Set("phase_name", "weaponization"),
		r.Set("new_field", 1),
		r.Delete("phase_name"),
	} {
		if !errors.Is(err, stix.ErrImmutable) {
			t.Fatalf("expected ErrImmutable, got %v", err)
		}
		var ie *stix.ImmutableError
		if !errors.As(err, &ie) || ie.Code() != stix.CodeImmutable {
			t.Fatalf("expected ImmutableError, got %v", err)
		}
	}
	if r.Value("phase_name") != "pre-attack" || r.Len() != 2 {
		t.Fatalf("record changed after mutation attempts")
	}
}

func TestRecord_IsolatedFromCallerContainers(t *testing.T) {
	s := stix.MustSchema("T",
		stix.F("labels", stix.ListProperty(stix.StringProperty())),
		stix.F("extra", stix.NewProperty()),
	)
	labels := []string{"malicious-activity"}
	extra := map[string]any{"k": "v"}
	r := stix.MustNew(s, map[string]any{"labels": labels, "extra": extra})

	labels[0] = "changed"
	extra["k"] = "changed"
	if got := r.Value("labels").([]any)[0]; got != "malicious-activity" {
		t.Fatalf("record observed caller slice mutation: %v", got)
	}
	if got := r.Value("extra").(map[string]any)["k"]; got != "v" {
		t.Fatalf("record observed caller map mutation: %v", got)
	}

	out := r.Value("labels").([]any)
	out[0] = "changed"
	if got := r.Value("labels").([]any)[0]; got != "malicious-activity" {
		t.Fatalf("record observed returned slice mutation: %v", got)
	}
}

func TestRecord_IsolatedFromTypedMapsAndPointers(t *testing.T) {
	s := stix.MustSchema("T",
		stix.F("tags", stix.NewProperty()),
		stix.F("counts", stix.NewProperty()),
		stix.F("owner", stix.NewProperty()),
	)
	tags := map[string]string{"a": "1"}
	counts := map[int][]int{7: {1, 2}}
	owner := "alice"
	r := stix.MustNew(s, map[string]any{"tags": tags, "counts": counts, "owner": &owner})
	before := r.String()

	tags["a"] = "MUTATED"
	tags["b"] = "added"
	counts[7][0] = 99
	owner = "mallory"
	if got := r.String(); got != before {
		t.Fatalf("record observed caller mutation:\nbefore: %s\n after: %s", before, got)
	}

	want := map[string]any{"a": "1"}
	if diff := cmp.Diff(want, r.Value("tags")); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"7": []any{1, 2}}, r.Value("counts")); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if r.Value("owner") != "alice" {
		t.Fatalf("expected owner copied by value, got %v", r.Value("owner"))
	}

	got := r.Value("tags").(map[string]any)
	got["a"] = "changed"
	if r.String() != before {
		t.Fatalf("record observed returned map mutation")
	}
}

func TestNewSchema_Errors(t *testing.T) {
	if _, err := stix.NewSchema("", stix.F("a", stix.NewProperty())); err == nil {
		t.Fatalf("expected error for empty type name")
	}
	if _, err := stix.NewSchema("T", stix.F("a", stix.NewProperty()), stix.F("a", stix.NewProperty())); err == nil {
		t.Fatalf("expected error for duplicate field")
	}
	if _, err := stix.NewSchema("T", stix.F("a", nil)); err == nil {
		t.Fatalf("expected error for nil property")
	}
	s, err := stix.NewSchema("T", stix.F("b", stix.NewProperty(stix.Required())), stix.F("a", stix.NewProperty()))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !slices.Equal(s.RequiredFields(), []string{"b"}) || s.Len() != 2 {
		t.Fatalf("unexpected schema introspection: %v", s.RequiredFields())
	}
}

func TestFieldValues(t *testing.T) {
	type phase struct {
		KillChainName string `json:"kill_chain_name"`
		PhaseName     string `stix:"phase_name" json:"phase"`
		Note          string `json:"note,omitempty"`
		Ignored       string `json:"-"`
		internal      string
	}
	values, err := stix.FieldValues(&phase{KillChainName: "foo", PhaseName: "pre-attack", internal: "x"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	r, err := stix.New(killChainPhase(), values)
	if err != nil {
		t.Fatalf("construct err: %v", err)
	}
	if r.Value("phase_name") != "pre-attack" {
		t.Fatalf("unexpected record: %v", r)
	}
	if _, err := stix.FieldValues(42); err == nil {
		t.Fatalf("expected error for non-struct")
	}
}
