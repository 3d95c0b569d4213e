// Package id provides the prefixed, sortable identifiers used by every
// floor entity (tables, orders, products, categories, audit entries, users).
//
// Identifiers are TypeIDs rendered as "prefix_suffix", e.g.
// "tbl_01h2xcejqtf2nbrexx3vqjhp41". The suffix is UUIDv7 based, so ids
// sort by creation time.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the entity kind encoded in an ID.
type Prefix string

// Entity prefixes.
const (
	PrefixTable    Prefix = "tbl"
	PrefixOrder    Prefix = "ord"
	PrefixProduct  Prefix = "prod"
	PrefixCategory Prefix = "cat"
	PrefixAudit    Prefix = "aud"
	PrefixUser     Prefix = "usr"
)

// ID identifies a floor entity. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the empty ID.
var Nil ID

// New returns a fresh ID for prefix. An invalid prefix is a programming
// error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse decodes any well-formed TypeID string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix decodes s and rejects ids of another entity kind.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != want {
		return Nil, fmt.Errorf("id: %q is not a %s id", s, want)
	}
	return parsed, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return parsed
}

// Kind-specific aliases keep signatures self-describing.
type (
	TableID    = ID
	OrderID    = ID
	ProductID  = ID
	CategoryID = ID
	AuditID    = ID
	UserID     = ID
)

func NewTableID() ID    { return New(PrefixTable) }
func NewOrderID() ID    { return New(PrefixOrder) }
func NewProductID() ID  { return New(PrefixProduct) }
func NewCategoryID() ID { return New(PrefixCategory) }
func NewAuditID() ID    { return New(PrefixAudit) }
func NewUserID() ID     { return New(PrefixUser) }

func ParseTableID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixTable) }
func ParseOrderID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixOrder) }
func ParseProductID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixProduct) }
func ParseCategoryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCategory) }
func ParseAuditID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixAudit) }
func ParseUserID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixUser) }

// String renders the id, or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix reports the entity kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the empty ID.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler. Nil encodes as "".
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "" decodes to Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer; Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL column
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T", src)
	}
}
