// Package objects defines schemas for common STIX object types.
package objects

import "github.com/reoring/stix"

// KillChainPhase describes a phase of a kill chain.
var KillChainPhase = stix.MustSchema("KillChainPhase",
	stix.F("kill_chain_name", stix.StringProperty(stix.Required())),
	stix.F("phase_name", stix.StringProperty(stix.Required())),
)

// ExternalReference points to information outside of STIX.
var ExternalReference = stix.MustSchema("ExternalReference",
	stix.F("source_name", stix.StringProperty(stix.Required())),
	stix.F("description", stix.StringProperty()),
	stix.F("url", stix.StringProperty()),
	stix.F("external_id", stix.StringProperty()),
)

// Indicator carries a detection pattern. id, created, modified and
// valid_from are generated when absent; the three timestamps share the
// construction time.
var Indicator = stix.MustSchema("Indicator",
	stix.F("type", stix.TypeProperty("indicator")),
	stix.F("id", stix.IdentifierProperty("indicator", stix.RandomID())),
	stix.F("created", stix.TimestampProperty(stix.DefaultNow())),
	stix.F("modified", stix.TimestampProperty(stix.DefaultNow())),
	stix.F("labels", stix.ListProperty(stix.StringProperty(), stix.Required())),
	stix.F("name", stix.StringProperty()),
	stix.F("description", stix.StringProperty()),
	stix.F("pattern", stix.StringProperty(stix.Required())),
	stix.F("valid_from", stix.TimestampProperty(stix.DefaultNow())),
	stix.F("valid_until", stix.TimestampProperty()),
	stix.F("kill_chain_phases", stix.ListProperty(stix.EmbeddedProperty(KillChainPhase))),
	stix.F("external_references", stix.ListProperty(stix.EmbeddedProperty(ExternalReference))),
)

// Registry holds every schema of this package keyed by STIX type name.
var Registry = func() *stix.Registry {
	r := stix.NewRegistry()
	for name, s := range map[string]*stix.Schema{
		"kill-chain-phase":   KillChainPhase,
		"external-reference": ExternalReference,
		"indicator":          Indicator,
	} {
		if err := r.Register(name, s); err != nil {
			panic(err)
		}
	}
	return r
}()

// NewKillChainPhase constructs a KillChainPhase record.
func NewKillChainPhase(values map[string]any) (*stix.Record, error) {
	return stix.New(KillChainPhase, values)
}

// NewExternalReference constructs an ExternalReference record.
func NewExternalReference(values map[string]any) (*stix.Record, error) {
	return stix.New(ExternalReference, values)
}

// NewIndicator constructs an Indicator record.
func NewIndicator(values map[string]any) (*stix.Record, error) {
	return stix.New(Indicator, values)
}
