package domain

import "encoding/json"

// Catcha constants.
const (
	// CatchContext is the JSON-LD context stamped on every canonical record.
	CatchContext = "http://catchpy.harvardx.harvard.edu.s3.amazonaws.com/jsonld/catch_context_jsonld.json"

	// CatchSchemaVersion is the canonical schema version.
	CatchSchemaVersion = "catch v1.0"

	// AnnotationType is the record type of every canonical annotation.
	AnnotationType = "Annotation"

	// ListType marks body, target and selector collections.
	ListType = "List"
)

// Canonical target item types.
const (
	TargetText       = "Text"
	TargetImage      = "Image"
	TargetVideo      = "Video"
	TargetAnnotation = "Annotation"
)

// Canonical body purposes.
const (
	PurposeCommenting = "commenting"
	PurposeTagging    = "tagging"
)

// CanonicalAnnotation is a record in the Catcha schema accepted by the
// destination store. Records are never modified after normalisation; the
// tombstone transform produces new values.
//
// Every canonical type keeps members it does not name in Extra, so records
// read from a file or the store are written back without loss.
type CanonicalAnnotation struct {
	Context       string      `json:"@context"`
	Type          string      `json:"type"`
	SchemaVersion string      `json:"schema_version"`
	ID            ID          `json:"id"`
	Created       string      `json:"created"`
	Modified      string      `json:"modified"`
	Creator       Creator     `json:"creator"`
	Permissions   Permissions `json:"permissions"`
	Platform      Platform    `json:"platform"`
	Body          Body        `json:"body"`
	Target        Target      `json:"target"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Creator identifies the author of an annotation.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Permissions lists the principals allowed to act on an annotation.
type Permissions struct {
	CanRead   []string `json:"can_read"`
	CanUpdate []string `json:"can_update"`
	CanDelete []string `json:"can_delete"`
	CanAdmin  []string `json:"can_admin"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Platform scopes an annotation to the hosting platform and context.
type Platform struct {
	PlatformName   string `json:"platform_name"`
	ContextID      string `json:"context_id"`
	CollectionID   string `json:"collection_id"`
	TargetSourceID string `json:"target_source_id"`
	Deleted        bool   `json:"deleted"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Body holds the textual bodies of an annotation.
type Body struct {
	Type  string     `json:"type"`
	Items []BodyItem `json:"items"`

	Extra map[string]json.RawMessage `json:"-"`
}

// BodyItem is a single textual body.
type BodyItem struct {
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
	Format  string `json:"format,omitempty"`
	Value   string `json:"value"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Target holds what an annotation refers to.
type Target struct {
	Type  string       `json:"type"`
	Items []TargetItem `json:"items"`

	Extra map[string]json.RawMessage `json:"-"`
}

// TargetItem is a single annotated resource.
type TargetItem struct {
	Type     string    `json:"type"`
	Source   string    `json:"source"`
	Format   string    `json:"format,omitempty"`
	Selector *Selector `json:"selector,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Selector narrows a target to a region.
type Selector struct {
	Type  string         `json:"type"`
	Items []SelectorItem `json:"items"`

	Extra map[string]json.RawMessage `json:"-"`
}

// SelectorItem is a RangeSelector or TextQuoteSelector.
type SelectorItem struct {
	Type          string             `json:"type"`
	StartSelector *XPathSelector     `json:"startSelector,omitempty"`
	EndSelector   *XPathSelector     `json:"endSelector,omitempty"`
	RefinedBy     []PositionSelector `json:"refinedBy,omitempty"`
	Exact         string             `json:"exact,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// XPathSelector anchors a range boundary to a DOM node.
type XPathSelector struct {
	Type  string `json:"type"`
	Value string `json:"value"`

	Extra map[string]json.RawMessage `json:"-"`
}

// PositionSelector refines a range with character offsets.
type PositionSelector struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ReplyTo returns the parent identifier when the annotation targets another
// annotation.
func (c *CanonicalAnnotation) ReplyTo() (ID, bool) {
	for _, item := range c.Target.Items {
		if item.Type == TargetAnnotation && item.Source != "" && item.Source != "0" {
			return StringID(item.Source), true
		}
	}
	return ID{}, false
}

// IsReply reports whether the annotation is a reply.
func (c *CanonicalAnnotation) IsReply() bool {
	_, ok := c.ReplyTo()
	return ok
}

// JSON codecs. Each keeps unnamed members in Extra.

func (c *CanonicalAnnotation) UnmarshalJSON(data []byte) error {
	type plain CanonicalAnnotation
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*c = CanonicalAnnotation(v)
	return nil
}

func (c CanonicalAnnotation) MarshalJSON() ([]byte, error) {
	type plain CanonicalAnnotation
	return encodeObject(plain(c), c.Extra)
}

func (c *Creator) UnmarshalJSON(data []byte) error {
	type plain Creator
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*c = Creator(v)
	return nil
}

func (c Creator) MarshalJSON() ([]byte, error) {
	type plain Creator
	return encodeObject(plain(c), c.Extra)
}

func (p *Permissions) UnmarshalJSON(data []byte) error {
	type plain Permissions
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Permissions(v)
	return nil
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	type plain Permissions
	return encodeObject(plain(p), p.Extra)
}

func (p *Platform) UnmarshalJSON(data []byte) error {
	type plain Platform
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = Platform(v)
	return nil
}

func (p Platform) MarshalJSON() ([]byte, error) {
	type plain Platform
	return encodeObject(plain(p), p.Extra)
}

func (b *Body) UnmarshalJSON(data []byte) error {
	type plain Body
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*b = Body(v)
	return nil
}

func (b Body) MarshalJSON() ([]byte, error) {
	type plain Body
	return encodeObject(plain(b), b.Extra)
}

func (b *BodyItem) UnmarshalJSON(data []byte) error {
	type plain BodyItem
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*b = BodyItem(v)
	return nil
}

func (b BodyItem) MarshalJSON() ([]byte, error) {
	type plain BodyItem
	return encodeObject(plain(b), b.Extra)
}

func (t *Target) UnmarshalJSON(data []byte) error {
	type plain Target
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*t = Target(v)
	return nil
}

func (t Target) MarshalJSON() ([]byte, error) {
	type plain Target
	return encodeObject(plain(t), t.Extra)
}

func (t *TargetItem) UnmarshalJSON(data []byte) error {
	type plain TargetItem
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*t = TargetItem(v)
	return nil
}

func (t TargetItem) MarshalJSON() ([]byte, error) {
	type plain TargetItem
	return encodeObject(plain(t), t.Extra)
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	type plain Selector
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*s = Selector(v)
	return nil
}

func (s Selector) MarshalJSON() ([]byte, error) {
	type plain Selector
	return encodeObject(plain(s), s.Extra)
}

func (s *SelectorItem) UnmarshalJSON(data []byte) error {
	type plain SelectorItem
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*s = SelectorItem(v)
	return nil
}

func (s SelectorItem) MarshalJSON() ([]byte, error) {
	type plain SelectorItem
	return encodeObject(plain(s), s.Extra)
}

func (x *XPathSelector) UnmarshalJSON(data []byte) error {
	type plain XPathSelector
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*x = XPathSelector(v)
	return nil
}

func (x XPathSelector) MarshalJSON() ([]byte, error) {
	type plain XPathSelector
	return encodeObject(plain(x), x.Extra)
}

func (p *PositionSelector) UnmarshalJSON(data []byte) error {
	type plain PositionSelector
	var v plain
	extra, err := decodeObject(data, &v)
	if err != nil {
		return err
	}
	v.Extra = extra
	*p = PositionSelector(v)
	return nil
}

func (p PositionSelector) MarshalJSON() ([]byte, error) {
	type plain PositionSelector
	return encodeObject(plain(p), p.Extra)
}
