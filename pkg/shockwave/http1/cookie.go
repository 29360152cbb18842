package http1

import "strconv"

// SameSite is the SameSite attribute of a Set-Cookie response header.
type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
	SameSiteNone
)

// Cookie is a single request cookie: a name/value pair borrowed from
// the Cookie header's bytes, following the same zero-copy discipline
// as HeaderMap.
type Cookie struct {
	Name  []byte
	Value []byte
}

// CookieMap holds the cookies parsed from a request's Cookie header.
// Parsing is lazy: the header is only split the first time a handler
// calls Get or VisitAll, since most requests never inspect cookies.
type CookieMap struct {
	cookies [MaxHeaders]Cookie
	count   int
	parsed  bool
	raw     []byte
}

// init primes the map with the raw Cookie header value; parsing itself
// is deferred to the first Get/VisitAll call.
func (c *CookieMap) init(raw []byte) {
	c.raw = raw
	c.parsed = false
	c.count = 0
}

// Reset clears the map for reuse from a pool.
func (c *CookieMap) Reset() {
	for i := 0; i < c.count; i++ {
		c.cookies[i] = Cookie{}
	}
	c.count = 0
	c.parsed = false
	c.raw = nil
}

func (c *CookieMap) ensureParsed() {
	if c.parsed {
		return
	}
	c.parsed = true
	c.parse(c.raw)
}

// parse splits "name1=value1; name2=value2" pairs per RFC 6265 §4.2.1.
func (c *CookieMap) parse(raw []byte) {
	for len(raw) > 0 && c.count < MaxHeaders {
		raw = skipLeadingSpace(raw)
		sep := indexByte(raw, ';')
		var pair []byte
		if sep == -1 {
			pair = raw
			raw = nil
		} else {
			pair = raw[:sep]
			raw = raw[sep+1:]
		}

		eq := indexByte(pair, '=')
		if eq <= 0 {
			continue
		}
		name := trimSpaceBytes(pair[:eq])
		value := trimSpaceBytes(pair[eq+1:])
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		c.cookies[c.count] = Cookie{Name: name, Value: value}
		c.count++
	}
}

func skipLeadingSpace(b []byte) []byte {
	for len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}
	return b
}

// Get returns the value of the first cookie named name, or nil.
func (c *CookieMap) Get(name []byte) []byte {
	c.ensureParsed()
	for i := 0; i < c.count; i++ {
		if equalFold(c.cookies[i].Name, name) {
			return c.cookies[i].Value
		}
	}
	return nil
}

// VisitAll calls visitor for each parsed cookie, in header order.
func (c *CookieMap) VisitAll(visitor func(name, value []byte) bool) {
	c.ensureParsed()
	for i := 0; i < c.count; i++ {
		if !visitor(c.cookies[i].Name, c.cookies[i].Value) {
			return
		}
	}
}

// SetCookie describes a Set-Cookie response header's attributes, per
// RFC 6265 §4.1.
type SetCookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  string // pre-formatted IMF-fixdate; callers own formatting
	MaxAge   int    // emitted only when HasMaxAge is set
	HasMaxAge bool
	HttpOnly bool
	Secure   bool
	SameSite SameSite
}

// String renders the Set-Cookie header value.
func (sc *SetCookie) String() string {
	buf := make([]byte, 0, 64)
	buf = append(buf, sc.Name...)
	buf = append(buf, '=')
	buf = append(buf, sc.Value...)

	if sc.Path != "" {
		buf = append(buf, "; Path="...)
		buf = append(buf, sc.Path...)
	}
	if sc.Domain != "" {
		buf = append(buf, "; Domain="...)
		buf = append(buf, sc.Domain...)
	}
	if sc.Expires != "" {
		buf = append(buf, "; Expires="...)
		buf = append(buf, sc.Expires...)
	}
	if sc.HasMaxAge {
		buf = append(buf, "; Max-Age="...)
		buf = append(buf, strconv.Itoa(sc.MaxAge)...)
	}
	if sc.HttpOnly {
		buf = append(buf, "; HttpOnly"...)
	}
	if sc.Secure {
		buf = append(buf, "; Secure"...)
	}
	switch sc.SameSite {
	case SameSiteLax:
		buf = append(buf, "; SameSite=Lax"...)
	case SameSiteStrict:
		buf = append(buf, "; SameSite=Strict"...)
	case SameSiteNone:
		buf = append(buf, "; SameSite=None"...)
	}
	return string(buf)
}
