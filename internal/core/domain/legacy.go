package domain

import "encoding/json"

// Legacy media values.
const (
	MediaText    = "text"
	MediaImage   = "image"
	MediaVideo   = "video"
	MediaComment = "comment"
)

// LegacyAnnotation is a record in the AnnoJS schema as returned by the search
// service. Named fields cover the schema; anything else is kept in Extra and
// written back unchanged.
type LegacyAnnotation struct {
	ID            ID                 `json:"id"`
	Created       string             `json:"created,omitempty"`
	Updated       string             `json:"updated,omitempty"`
	Text          string             `json:"text,omitempty"`
	Tags          []string           `json:"tags,omitempty"`
	User          *LegacyUser        `json:"user,omitempty"`
	Permissions   *LegacyPermissions `json:"permissions,omitempty"`
	ContextID     string             `json:"contextId,omitempty"`
	CollectionID  string             `json:"collectionId,omitempty"`
	URI           *FlexString        `json:"uri,omitempty"`
	Media         *string            `json:"media,omitempty"`
	Ranges        []LegacyRange      `json:"ranges,omitempty"`
	Quote         *string            `json:"quote,omitempty"`
	Parent        *ID                `json:"parent,omitempty"`
	TotalComments *int               `json:"totalComments,omitempty"`

	// Bookkeeping fields that the canonical schema does not carry.
	Archived *bool          `json:"archived,omitempty"`
	Citation json.RawMessage `json:"citation,omitempty"`
	Deleted  *bool          `json:"deleted,omitempty"`

	// Extra holds members not covered by the named fields.
	Extra map[string]json.RawMessage `json:"-"`

	// empty holds members that were present but decoded to the zero value,
	// so that "text": "" survives a round trip as written.
	empty map[string]json.RawMessage
	// raw and decodeErr are set when the record did not fit the schema.
	raw       json.RawMessage
	decodeErr error
}

// LegacyUser is the AnnoJS author block.
type LegacyUser struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// LegacyPermissions is the AnnoJS permissions block.
type LegacyPermissions struct {
	Read   []string `json:"read"`
	Update []string `json:"update"`
	Delete []string `json:"delete"`
	Admin  []string `json:"admin"`
}

// LegacyRange describes a text range. Start and End are XPath expressions;
// either may be missing in upstream data.
type LegacyRange struct {
	Start       *string `json:"start,omitempty"`
	End         *string `json:"end,omitempty"`
	StartOffset *int    `json:"startOffset,omitempty"`
	EndOffset   *int    `json:"endOffset,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var legacyKnownKeys = keySet(
	"id", "created", "updated", "text", "tags", "user", "permissions",
	"contextId", "collectionId", "uri", "media", "ranges", "quote", "parent",
	"totalComments", "archived", "citation", "deleted",
)

var rangeKnownKeys = keySet("start", "end", "startOffset", "endOffset")

// Members dropped by omitempty when empty.
var omittableKeys = []string{"created", "updated", "text", "tags", "contextId", "collectionId"}

// DecodeLegacy decodes one record. Only malformed JSON is an error: a record
// whose members have the wrong types decodes to an annotation that keeps the
// raw bytes and reports the problem through DecodeError.
func DecodeLegacy(data []byte) (LegacyAnnotation, error) {
	var a LegacyAnnotation
	if err := a.UnmarshalJSON(data); err != nil {
		return LegacyAnnotation{}, err
	}
	return a, nil
}

// UnmarshalJSON decodes the named fields and collects the rest into Extra.
// Type mismatches are recorded on the annotation instead of failing.
func (a *LegacyAnnotation) UnmarshalJSON(data []byte) error {
	type plain LegacyAnnotation
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		if !json.Valid(data) {
			return err
		}
		var head struct {
			ID ID `json:"id"`
		}
		_ = json.Unmarshal(data, &head)
		*a = LegacyAnnotation{
			ID:        head.ID,
			raw:       append(json.RawMessage(nil), data...),
			decodeErr: err,
		}
		return nil
	}
	extra, err := collectExtra(data, legacyKnownKeys)
	if err != nil {
		return err
	}
	v.Extra = extra
	*a = LegacyAnnotation(v)
	a.empty = a.emptyMembers(data)
	return nil
}

func (a *LegacyAnnotation) emptyMembers(data []byte) map[string]json.RawMessage {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil
	}
	var empty map[string]json.RawMessage
	for _, k := range omittableKeys {
		v, ok := all[k]
		if !ok || !a.isEmpty(k) {
			continue
		}
		if empty == nil {
			empty = make(map[string]json.RawMessage)
		}
		empty[k] = v
	}
	return empty
}

func (a *LegacyAnnotation) isEmpty(key string) bool {
	switch key {
	case "created":
		return a.Created == ""
	case "updated":
		return a.Updated == ""
	case "text":
		return a.Text == ""
	case "tags":
		return len(a.Tags) == 0
	case "contextId":
		return a.ContextID == ""
	case "collectionId":
		return a.CollectionID == ""
	}
	return false
}

// MarshalJSON encodes the named fields together with Extra, keys sorted.
// A record that failed to decode is written back exactly as received.
func (a LegacyAnnotation) MarshalJSON() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	type plain LegacyAnnotation
	encoded, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	extra := a.Extra
	if len(a.empty) > 0 {
		extra = copyExtra(a.Extra)
		if extra == nil {
			extra = make(map[string]json.RawMessage, len(a.empty))
		}
		for k, v := range a.empty {
			if a.isEmpty(k) {
				extra[k] = v
			}
		}
	}
	return mergeExtra(encoded, extra)
}

// DecodeError returns the type mismatch that kept the record from decoding,
// or nil for a well-formed record.
func (a *LegacyAnnotation) DecodeError() error {
	return a.decodeErr
}

// ForgetEmptyMembers drops the record of members that were present but
// empty, so the annotation encodes as if they had been absent.
func (a *LegacyAnnotation) ForgetEmptyMembers() {
	a.empty = nil
}

// UnmarshalJSON decodes the named fields and collects the rest into Extra.
func (r *LegacyRange) UnmarshalJSON(data []byte) error {
	type plain LegacyRange
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := collectExtra(data, rangeKnownKeys)
	if err != nil {
		return err
	}
	v.Extra = extra
	*r = LegacyRange(v)
	return nil
}

// MarshalJSON encodes the named fields together with Extra, keys sorted.
func (r LegacyRange) MarshalJSON() ([]byte, error) {
	type plain LegacyRange
	encoded, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, r.Extra)
}

// HasMedia reports whether the media discriminator is present.
func (a *LegacyAnnotation) HasMedia() bool {
	return a.Media != nil
}

// MediaType returns the media discriminator, or "" when absent.
func (a *LegacyAnnotation) MediaType() string {
	if a.Media == nil {
		return ""
	}
	return *a.Media
}

// URIString returns the target locator in string form.
func (a *LegacyAnnotation) URIString() string {
	if a.URI == nil {
		return ""
	}
	return a.URI.String()
}

// QuoteString returns the highlighted text, or "" when absent.
func (a *LegacyAnnotation) QuoteString() string {
	if a.Quote == nil {
		return ""
	}
	return *a.Quote
}

// ReplyTo returns the parent identifier for replies.
// Top-level annotations carry no parent or the sentinel "0".
func (a *LegacyAnnotation) ReplyTo() (ID, bool) {
	if a.Parent == nil || a.Parent.IsZero() || a.Parent.Key() == "0" {
		return ID{}, false
	}
	return *a.Parent, true
}

// IsReply reports whether the annotation answers another annotation.
func (a *LegacyAnnotation) IsReply() bool {
	_, ok := a.ReplyTo()
	return ok
}

// Clone returns a deep copy so callers can strip or repair fields without
// touching the original.
func (a *LegacyAnnotation) Clone() LegacyAnnotation {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	if a.User != nil {
		u := *a.User
		c.User = &u
	}
	if a.Permissions != nil {
		p := LegacyPermissions{
			Read:   append([]string(nil), a.Permissions.Read...),
			Update: append([]string(nil), a.Permissions.Update...),
			Delete: append([]string(nil), a.Permissions.Delete...),
			Admin:  append([]string(nil), a.Permissions.Admin...),
		}
		c.Permissions = &p
	}
	if a.URI != nil {
		u := *a.URI
		c.URI = &u
	}
	c.Media = cloneString(a.Media)
	c.Quote = cloneString(a.Quote)
	if a.Parent != nil {
		p := *a.Parent
		c.Parent = &p
	}
	if a.TotalComments != nil {
		n := *a.TotalComments
		c.TotalComments = &n
	}
	if a.Archived != nil {
		b := *a.Archived
		c.Archived = &b
	}
	if a.Deleted != nil {
		b := *a.Deleted
		c.Deleted = &b
	}
	if a.Citation != nil {
		c.Citation = append(json.RawMessage(nil), a.Citation...)
	}
	if a.Ranges != nil {
		c.Ranges = make([]LegacyRange, len(a.Ranges))
		for i, r := range a.Ranges {
			c.Ranges[i] = LegacyRange{
				Start:       cloneString(r.Start),
				End:         cloneString(r.End),
				StartOffset: cloneInt(r.StartOffset),
				EndOffset:   cloneInt(r.EndOffset),
				Extra:       copyExtra(r.Extra),
			}
		}
	}
	c.Extra = copyExtra(a.Extra)
	c.empty = copyExtra(a.empty)
	if a.raw != nil {
		c.raw = append(json.RawMessage(nil), a.raw...)
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
