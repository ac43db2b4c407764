package codable

import "strings"

// Presence is the bit flag collected by DecodeWithMeta.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Some alias key appeared in the input.
	PresenceWasNull                             // An alias key held null.
	PresenceDefaultApplied                      // No key resolved; the default was used.
	PresenceMalformed                           // A key was present but could not be read.
	PresenceAlias                               // The value came from a key other than the first.
)

func (p Presence) String() string {
	if p == 0 {
		return "absent"
	}
	var parts []string
	for _, f := range []struct {
		bit  Presence
		name string
	}{
		{PresenceSeen, "seen"},
		{PresenceWasNull, "null"},
		{PresenceDefaultApplied, "default"},
		{PresenceMalformed, "malformed"},
		{PresenceAlias, "alias"},
	} {
		if p&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// PresenceMap maps the JSON Pointer of each field's first key to its flags.
type PresenceMap map[string]Presence

// Decoded carries the decoded record along with presence metadata.
type Decoded[T any] struct {
	Value    T
	Presence PresenceMap
	// Sources maps a field pointer to the alias key that supplied its value.
	Sources map[string]string
}

// resolution is the per-field outcome of alias key resolution.
type resolution struct {
	key       string
	seen      bool
	wasNull   bool
	defaulted bool
	malformed bool
	alias     bool
}

func (r resolution) flags() Presence {
	var p Presence
	if r.seen {
		p |= PresenceSeen
	}
	if r.wasNull {
		p |= PresenceWasNull
	}
	if r.defaulted {
		p |= PresenceDefaultApplied
	}
	if r.malformed {
		p |= PresenceMalformed
	}
	if r.alias {
		p |= PresenceAlias
	}
	return p
}
