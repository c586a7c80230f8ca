package builder

// Options control archive construction.
type Options struct {
	// IncludeResourcesFromDiskCache keeps transactions served from the
	// browser cache instead of filtering them out.
	IncludeResourcesFromDiskCache bool

	// IncludeTextFromResponseBody embeds captured response bodies in the
	// archive's content records.
	IncludeTextFromResponseBody bool

	// MimicChromeHAR switches every dual-policy derivation to the
	// predecessor tool's behavior, bug-for-bug. Off, the corrected
	// derivations are used.
	MimicChromeHAR bool

	// RedactSensitive masks credential-bearing header and cookie values in
	// the output so archives are safe to share.
	RedactSensitive bool
}
