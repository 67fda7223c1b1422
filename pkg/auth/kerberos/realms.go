package kerberos

import (
	krb5config "github.com/jcmturner/gokrb5/v8/config"
)

// RealmSource answers classic realm questions from krb5.conf data. It
// implements netauth.RealmSource.
type RealmSource struct {
	conf *krb5config.Config
}

// NewRealmSource creates a realm source from an already-parsed krb5
// configuration.
func NewRealmSource(conf *krb5config.Config) *RealmSource {
	return &RealmSource{conf: conf}
}

// NewRealmSourceFromFile loads krb5.conf from path (default
// /etc/krb5.conf) and returns a realm source over it.
func NewRealmSourceFromFile(path string) (*RealmSource, error) {
	if path == "" {
		path = "/etc/krb5.conf"
	}
	conf, err := krb5config.Load(path)
	if err != nil {
		return nil, err
	}
	return NewRealmSource(conf), nil
}

// HostRealms returns the realms mapped to hostname via the domain_realm
// section, best match first.
func (s *RealmSource) HostRealms(hostname string) ([]string, error) {
	realm := s.conf.ResolveRealm(hostname)
	if realm == "" {
		return nil, nil
	}
	return []string{realm}, nil
}

// DefaultRealms returns the configured default realm, when one is set.
func (s *RealmSource) DefaultRealms() ([]string, error) {
	if s.conf.LibDefaults.DefaultRealm == "" {
		return nil, nil
	}
	return []string{s.conf.LibDefaults.DefaultRealm}, nil
}
