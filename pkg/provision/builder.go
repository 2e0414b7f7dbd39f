package provision

import "fmt"

// Directive is one line of Junos set-command configuration.
type Directive string

// allowRuleBundles are the intent-independent security policies: permit
// HTTP and HTTPS from the trust zone to the untrust zone. Appended
// identically on every build.
var allowRuleBundles = [][]Directive{
	{
		"set security policies from-zone trust to-zone untrust policy allow-http match source-address any",
		"set security policies from-zone trust to-zone untrust policy allow-http match destination-address any",
		"set security policies from-zone trust to-zone untrust policy allow-http match application junos-http",
		"set security policies from-zone trust to-zone untrust policy allow-http then permit",
	},
	{
		"set security policies from-zone trust to-zone untrust policy allow-https match source-address any",
		"set security policies from-zone trust to-zone untrust policy allow-https match destination-address any",
		"set security policies from-zone trust to-zone untrust policy allow-https match application junos-https",
		"set security policies from-zone trust to-zone untrust policy allow-https then permit",
	},
}

// hardeningGroups are the intent-independent baseline zone hardening
// directives: management-service allowances on the trust zone, and screen
// protection on the untrust zone.
var hardeningGroups = [][]Directive{
	{
		"set security zones security-zone trust host-inbound-traffic system-services ssh",
		"set security zones security-zone trust host-inbound-traffic system-services ping",
	},
	{
		"set security zones security-zone untrust screen untrust-screen",
	},
}

// BuildDirectives maps an intent to its ordered directive sequence. Pure and
// deterministic: the same intent always yields a byte-identical sequence.
// Order matters: interface addressing precedes zone assignment, which
// precedes the policy directives that reference the zone.
//
// Validation of the intent itself is the caller's job; BuildDirectives never
// fails for a structurally valid intent.
func BuildDirectives(intent ConfigIntent) []Directive {
	directives := []Directive{
		Directive(fmt.Sprintf("set interfaces %s unit 0 family inet address %s",
			intent.InterfaceName, intent.InterfaceAddress)),
		Directive(fmt.Sprintf("set interfaces %s unit 0 description 'Automated configuration'",
			intent.InterfaceName)),
		Directive(fmt.Sprintf("set security zones security-zone %s interfaces %s.0",
			intent.SecurityZone, intent.InterfaceName)),
	}

	for _, bundle := range allowRuleBundles {
		directives = append(directives, bundle...)
	}
	for _, group := range hardeningGroups {
		directives = append(directives, group...)
	}
	return directives
}

// AllowRuleBundleCount is the number of constant allow-rule policy bundles
// in every build (HTTP and HTTPS).
const AllowRuleBundleCount = 2

// HardeningGroupCount is the number of constant hardening groups in every
// build (trust host-inbound services, untrust screen).
const HardeningGroupCount = 2

// directiveStrings converts directives for the transport layer.
func directiveStrings(directives []Directive) []string {
	out := make([]string, len(directives))
	for i, d := range directives {
		out[i] = string(d)
	}
	return out
}
