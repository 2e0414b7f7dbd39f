// Package provision turns a configuration intent into an applied device
// change: it builds the directive sequence, drives a configuration session
// through the fixed pipeline, and reports a structured outcome.
package provision

import (
	"regexp"

	"github.com/srxprov/srxprov/pkg/util"
)

// identifierRe matches Junos interface names (ge-0/0/1, reth0) and zone
// names (trust, dmz-guest).
var identifierRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._/-]*$`)

// ConfigIntent describes one requested interface configuration: assign an
// address to an interface and bind it into a security zone. Immutable once
// submitted.
type ConfigIntent struct {
	InterfaceName    string `json:"interface_name"`
	InterfaceAddress string `json:"interface_ip"`
	SecurityZone     string `json:"security_zone"`
}

// Validate checks the intent's structure. It runs pre-flight, before any
// session is opened, so a malformed intent never consumes a connection.
func (i ConfigIntent) Validate() error {
	v := &util.ValidationBuilder{}

	if i.InterfaceName == "" {
		v.AddError("interface name must not be empty")
	} else if !identifierRe.MatchString(i.InterfaceName) {
		v.AddErrorf("interface name %q is not a valid identifier", i.InterfaceName)
	}

	if i.SecurityZone == "" {
		v.AddError("security zone must not be empty")
	} else if !identifierRe.MatchString(i.SecurityZone) {
		v.AddErrorf("security zone %q is not a valid identifier", i.SecurityZone)
	}

	if i.InterfaceAddress == "" {
		v.AddError("interface address must not be empty")
	} else if _, _, err := util.ParseIPWithMask(i.InterfaceAddress); err != nil {
		v.AddErrorf("interface address %q must be an IP address with prefix length", i.InterfaceAddress)
	}

	return v.Build()
}
