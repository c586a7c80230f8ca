package domain

// Cookie is one archive cookie record. Header-derived cookies carry only
// Name/Value; cookies enriched from the debugger's cookie store also carry
// Path/Domain/Expires and the flag fields.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Expires  string `json:"expires,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
}
