// Package urlquery derives new path+query strings from an existing one.
// Every helper preserves the parameters it was not asked to touch.
package urlquery

import (
	"errors"
	"net/url"
)

// ErrMalformedURL is returned when the current URL cannot be parsed at all.
// Callers treat it as a no-op navigation.
var ErrMalformedURL = errors.New("urlquery: malformed url")

// SetParam returns current with key set to value.
func SetParam(current, key, value string) (string, error) {
	u, q, err := split(current)
	if err != nil {
		return "", err
	}
	q.Set(key, value)
	return join(u, q), nil
}

// RemoveParams returns current with every key in keys removed. When no
// parameters remain the bare path is returned.
func RemoveParams(current string, keys ...string) (string, error) {
	u, q, err := split(current)
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		q.Del(k)
	}
	return join(u, q), nil
}

// ParseQuery parses raw leniently: segments that fail to decode are dropped
// and the rest are kept.
func ParseQuery(raw string) url.Values {
	// url.ParseQuery keeps going past bad pairs and reports only the first error.
	q, _ := url.ParseQuery(raw)
	if q == nil {
		q = url.Values{}
	}
	return q
}

func split(current string) (*url.URL, url.Values, error) {
	u, err := url.Parse(current)
	if err != nil {
		return nil, nil, errors.Join(ErrMalformedURL, err)
	}
	return u, ParseQuery(u.RawQuery), nil
}

func join(u *url.URL, q url.Values) string {
	out := *u
	out.RawQuery = q.Encode()
	out.ForceQuery = false
	out.Fragment = ""
	out.RawFragment = ""
	if out.Path == "" && out.Host == "" {
		out.Path = "/"
	}
	return out.String()
}
