// Package stix provides schema-validated, immutable records for STIX-style
// threat intelligence objects:
//
// - Property: a reusable validation/default rule for one field (fixed values,
//   type names, "<type>--<UUID>" identifiers, timestamps, lists, embedded records)
// - Schema: the ordered set of fields of one record type
// - Construct: validates and defaults field values and freezes them into a Record
// - ToJSON: the canonical, sorted-key JSON text of a Record
//
// Design policy:
// - Keep the public API in the root package; put decoding details under internal/.
// - Timestamp text lives in codec/, YAML schema files in schemafile/, example
//   object types in objects/ and the CLI under cmd/stix.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	phase := stix.MustSchema("KillChainPhase",
//		stix.F("kill_chain_name", stix.StringProperty(stix.Required())),
//		stix.F("phase_name", stix.StringProperty(stix.Required())),
//	)
//	r, err := stix.New(phase, map[string]any{
//		"kill_chain_name": "lockheed-martin-cyber-kill-chain",
//		"phase_name":      "reconnaissance",
//	})
//	text, err := stix.ToJSON(r)
package stix
