package service

import (
	"sort"
)

// Providers is the set of enabled authentication strategies. It is built
// from configuration; a strategy that is not configured is absent.
type Providers struct {
	Credentials *CredentialsResolver
	OAuth       map[string]*OAuthResolver
}

// Names lists the enabled strategies, credentials first.
func (p *Providers) Names() []string {
	var names []string
	if p.Credentials != nil {
		names = append(names, ProviderCredentials)
	}

	oauth := make([]string, 0, len(p.OAuth))
	for name := range p.OAuth {
		oauth = append(oauth, name)
	}
	sort.Strings(oauth)
	return append(names, oauth...)
}

func (p *Providers) Enabled(name string) bool {
	if name == ProviderCredentials {
		return p.Credentials != nil
	}
	_, ok := p.OAuth[name]
	return ok
}

// OAuthProvider returns the resolver for name or ErrProviderDisabled.
func (p *Providers) OAuthProvider(name string) (*OAuthResolver, error) {
	r, ok := p.OAuth[name]
	if !ok {
		return nil, ErrProviderDisabled
	}
	return r, nil
}
