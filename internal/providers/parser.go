package providers

import "strings"

// ProviderRef is one entry of the LLM_PROVIDERS failover list, written as
// name[:alias][@model]. The alias selects an API key slot and the model
// overrides the configured default for that provider.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
	Model    string
}

// Label identifies the entry in logs and audit rows.
func (r ProviderRef) Label() string {
	if r.KeyAlias == "" {
		return r.Name
	}
	return r.Name + ":" + r.KeyAlias
}

// ParseProviderList splits a "|" separated provider list. Blank entries are
// skipped and an empty list falls back to the mock provider.
func ParseProviderList(raw string) []ProviderRef {
	var out []ProviderRef
	for _, p := range strings.Split(raw, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, parseRef(p))
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}

func parseRef(p string) ProviderRef {
	ref := ProviderRef{Raw: p}
	head := p
	if at := strings.LastIndex(p, "@"); at >= 0 {
		ref.Model = strings.TrimSpace(p[at+1:])
		head = p[:at]
	}
	name, alias, _ := strings.Cut(head, ":")
	ref.Name = strings.ToLower(strings.TrimSpace(name))
	ref.KeyAlias = strings.TrimSpace(alias)
	return ref
}

func modelOr(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
