// Package agent identifies shopping agents calling the gateway.
// Agents announce themselves with a Shopping-Agent header, an RFC 8941
// Dictionary carrying the agent name and version. The gateway can gate
// callers on a minimum version.
package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
	"golang.org/x/mod/semver"
)

// Header is the request header shopping agents send.
const Header = "Shopping-Agent"

// Identity describes the calling agent.
type Identity struct {
	Name    string
	Version string // semver without the "v" prefix, e.g. "1.4.2"
}

// ParseHeader extracts the agent identity from a Shopping-Agent header.
// Format: name="cart-bot";version="1.4.2" (RFC 8941 Dictionary).
//
// Examples:
//   - name="cart-bot";version="1.4.2"
//   - name="shopper";version="2.0.0";trace=?1  (unknown params ignored)
//
// Returns an error if the header is empty, malformed, or missing the
// name key. Version is optional; an empty version passes any gate only
// when no minimum is configured.
func ParseHeader(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Identity{}, errors.New("empty Shopping-Agent header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Identity{}, fmt.Errorf("invalid Shopping-Agent header: %w", err)
	}

	member, ok := dict.Get("name")
	if !ok {
		return Identity{}, errors.New("name key not found in Shopping-Agent header")
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return Identity{}, errors.New("name value must be an item")
	}
	name, ok := item.Value.(string)
	if !ok || name == "" {
		return Identity{}, errors.New("name value must be a non-empty string")
	}

	id := Identity{Name: name}

	if member, ok := dict.Get("version"); ok {
		item, ok := member.(httpsfv.Item)
		if !ok {
			return Identity{}, errors.New("version value must be an item")
		}
		version, ok := item.Value.(string)
		if !ok {
			return Identity{}, errors.New("version value must be a string")
		}
		if !semver.IsValid("v" + version) {
			return Identity{}, fmt.Errorf("version %q is not valid semver", version)
		}
		id.Version = version
	}

	return id, nil
}

// VersionError reports an agent below the configured minimum version.
type VersionError struct {
	Got string
	Min string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("agent version %s below minimum %s", e.Got, e.Min)
}

// CheckVersion gates an identity on a minimum semver. An empty min
// disables the gate. An identity without a version fails a configured
// gate.
func CheckVersion(id Identity, min string) error {
	if min == "" {
		return nil
	}
	if !semver.IsValid("v" + min) {
		return fmt.Errorf("minimum version %q is not valid semver", min)
	}
	if id.Version == "" {
		return &VersionError{Got: "unknown", Min: min}
	}
	if semver.Compare("v"+id.Version, "v"+min) < 0 {
		return &VersionError{Got: id.Version, Min: min}
	}
	return nil
}
