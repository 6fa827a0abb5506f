package annojs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/logger"
	"github.com/custodia-labs/annomigrate/internal/postprocessors"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Selector and body type names used by the Catcha schema.
const (
	textualBody       = "TextualBody"
	rangeSelector     = "RangeSelector"
	xpathSelector     = "XPathSelector"
	positionSelector  = "TextPositionSelector"
	quoteSelector     = "TextQuoteSelector"
	bodyFormat        = "text/html"
	fieldMedia        = "media"
	reasonMissingID   = "missing id"
	reasonNoParent    = "reply has no parent"
	reasonRangeAnchor = "first range lacks start or end"
)

var targetTypes = map[string]string{
	domain.MediaText:  domain.TargetText,
	domain.MediaImage: domain.TargetImage,
	domain.MediaVideo: domain.TargetVideo,
}

// Normaliser converts AnnoJS records to Catcha.
type Normaliser struct {
	platformName string
	repairs      driven.RepairPipeline
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithPlatformName sets platform.platform_name on every converted record.
func WithPlatformName(name string) Option {
	return func(n *Normaliser) {
		if name != "" {
			n.platformName = name
		}
	}
}

// WithRepairPipeline replaces the default repair pipeline.
func WithRepairPipeline(p driven.RepairPipeline) Option {
	return func(n *Normaliser) {
		if p != nil {
			n.repairs = p
		}
	}
}

// New creates a normaliser with the default platform name and repairs.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		platformName: domain.DefaultPlatformName,
		repairs:      postprocessors.DefaultPipeline(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Precheck rejects records that did not decode against the schema and records
// without the media discriminator.
func (n *Normaliser) Precheck(record *domain.LegacyAnnotation) error {
	if err := record.DecodeError(); err != nil {
		return mistyped(record.ID, err)
	}
	if !record.HasMedia() {
		return &domain.StructuralRejection{ID: record.ID, Field: fieldMedia}
	}
	return nil
}

// Normalise repairs a copy of the record and converts it.
func (n *Normaliser) Normalise(record *domain.LegacyAnnotation) (*domain.CanonicalAnnotation, error) {
	canonical, _, err := n.normalise(record)
	return canonical, err
}

// NormaliseBatch converts records one at a time. Every record is routed to
// exactly one bucket of the result.
func (n *Normaliser) NormaliseBatch(records []domain.LegacyAnnotation) *domain.BatchResult {
	result := &domain.BatchResult{
		Canonical: make([]domain.CanonicalAnnotation, 0, len(records)),
	}
	for i := range records {
		result.Add(n.outcome(&records[i]))
	}
	logger.Debug("normalised %d records: %d ok, %d errors, %d rejected, %d repaired",
		len(records), len(result.Canonical), len(result.Errors), len(result.Rejected), result.Repaired)
	return result
}

func (n *Normaliser) outcome(record *domain.LegacyAnnotation) domain.Outcome {
	if err := n.Precheck(record); err != nil {
		logger.Debug("%v", err)
		return domain.Outcome{Kind: domain.OutcomeRejected, Source: *record, Err: err}
	}
	canonical, repaired, err := n.normalise(record)
	if err != nil {
		logger.Debug("%v", err)
		return domain.Outcome{Kind: domain.OutcomeFailed, Source: *record, Err: err, Repaired: repaired}
	}
	return domain.Outcome{Kind: domain.OutcomeOK, Source: *record, Canonical: canonical, Repaired: repaired}
}

// mistyped describes a decode failure as a rejection naming the offending member.
func mistyped(id domain.ID, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "record"
		}
		return &domain.StructuralRejection{
			ID:     id,
			Field:  field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	return &domain.StructuralRejection{ID: id, Field: "record", Reason: err.Error()}
}

func (n *Normaliser) normalise(record *domain.LegacyAnnotation) (*domain.CanonicalAnnotation, bool, error) {
	if err := record.DecodeError(); err != nil {
		return nil, false, mistyped(record.ID, err)
	}
	if record.ID.IsZero() {
		return nil, false, fail(record, reasonMissingID)
	}

	// Repairs work on a copy; the caller's record is left as it was pulled.
	working := record.Clone()
	applied := n.repairs.Repair(&working)
	for _, name := range applied {
		logger.Debug("repaired %s with %s", record.ID, name)
	}
	repaired := len(applied) > 0

	target, err := n.target(&working)
	if err != nil {
		return nil, repaired, err
	}

	canonical := &domain.CanonicalAnnotation{
		Context:       domain.CatchContext,
		Type:          domain.AnnotationType,
		SchemaVersion: domain.CatchSchemaVersion,
		ID:            working.ID,
		Created:       working.Created,
		Modified:      working.Updated,
		Creator:       creator(working.User),
		Permissions:   permissions(working.Permissions),
		Platform: domain.Platform{
			PlatformName:   n.platformName,
			ContextID:      working.ContextID,
			CollectionID:   working.CollectionID,
			TargetSourceID: working.URIString(),
			Deleted:        working.Deleted != nil && *working.Deleted,
		},
		Body:   body(&working),
		Target: target,
	}
	return canonical, repaired, nil
}

func (n *Normaliser) target(record *domain.LegacyAnnotation) (domain.Target, error) {
	media := record.MediaType()

	if media == domain.MediaComment {
		parent, ok := record.ReplyTo()
		if !ok {
			return domain.Target{}, fail(record, reasonNoParent)
		}
		return domain.Target{
			Type: domain.ListType,
			Items: []domain.TargetItem{{
				Type:   domain.TargetAnnotation,
				Source: parent.Key(),
			}},
		}, nil
	}

	targetType, ok := targetTypes[media]
	if !ok {
		return domain.Target{}, fail(record, "unknown media "+strconv.Quote(media))
	}

	if len(record.Ranges) > 0 {
		first := record.Ranges[0]
		if first.Start == nil || first.End == nil {
			return domain.Target{}, fail(record, reasonRangeAnchor)
		}
	}

	return domain.Target{
		Type: domain.ListType,
		Items: []domain.TargetItem{{
			Type:     targetType,
			Source:   record.URIString(),
			Selector: selector(record),
		}},
	}, nil
}

// selector builds one RangeSelector per range plus a TextQuoteSelector for a
// non-empty quote. Returns nil when there is nothing to select.
func selector(record *domain.LegacyAnnotation) *domain.Selector {
	items := make([]domain.SelectorItem, 0, len(record.Ranges)+1)
	for _, r := range record.Ranges {
		item := domain.SelectorItem{Type: rangeSelector}
		if r.Start != nil {
			item.StartSelector = &domain.XPathSelector{Type: xpathSelector, Value: *r.Start}
		}
		if r.End != nil {
			item.EndSelector = &domain.XPathSelector{Type: xpathSelector, Value: *r.End}
		}
		if r.StartOffset != nil && r.EndOffset != nil {
			item.RefinedBy = []domain.PositionSelector{{
				Type:  positionSelector,
				Start: *r.StartOffset,
				End:   *r.EndOffset,
			}}
		}
		items = append(items, item)
	}
	if quote := record.QuoteString(); quote != "" {
		items = append(items, domain.SelectorItem{Type: quoteSelector, Exact: quote})
	}
	if len(items) == 0 {
		return nil
	}
	return &domain.Selector{Type: domain.ListType, Items: items}
}

func body(record *domain.LegacyAnnotation) domain.Body {
	items := make([]domain.BodyItem, 0, len(record.Tags)+1)
	items = append(items, domain.BodyItem{
		Type:    textualBody,
		Purpose: domain.PurposeCommenting,
		Format:  bodyFormat,
		Value:   record.Text,
	})
	for _, tag := range record.Tags {
		items = append(items, domain.BodyItem{
			Type:    textualBody,
			Purpose: domain.PurposeTagging,
			Value:   tag,
		})
	}
	return domain.Body{Type: domain.ListType, Items: items}
}

func creator(user *domain.LegacyUser) domain.Creator {
	if user == nil {
		return domain.Creator{}
	}
	return domain.Creator{ID: user.ID.String(), Name: user.Name}
}

func permissions(p *domain.LegacyPermissions) domain.Permissions {
	if p == nil {
		p = &domain.LegacyPermissions{}
	}
	return domain.Permissions{
		CanRead:   orEmpty(p.Read),
		CanUpdate: orEmpty(p.Update),
		CanDelete: orEmpty(p.Delete),
		CanAdmin:  orEmpty(p.Admin),
	}
}

// orEmpty copies s so canonical JSON carries [] rather than null.
func orEmpty(s []string) []string {
	return append([]string{}, s...)
}

func fail(record *domain.LegacyAnnotation, reason string) error {
	return &domain.NormalizationError{ID: record.ID, Reason: reason}
}

var legacyMedia = map[string]string{
	domain.TargetText:       domain.MediaText,
	domain.TargetImage:      domain.MediaImage,
	domain.TargetVideo:      domain.MediaVideo,
	domain.TargetAnnotation: domain.MediaComment,
}

// Denormalise maps a canonical record back to AnnoJS the way the destination
// serves it: uri is a string, bookkeeping fields are absent and an empty quote
// is not written.
func (n *Normaliser) Denormalise(record *domain.CanonicalAnnotation) domain.LegacyAnnotation {
	out := domain.LegacyAnnotation{
		ID:           record.ID,
		Created:      record.Created,
		Updated:      record.Modified,
		ContextID:    record.Platform.ContextID,
		CollectionID: record.Platform.CollectionID,
		User: &domain.LegacyUser{
			ID:   domain.NewFlexString(record.Creator.ID),
			Name: record.Creator.Name,
		},
		Permissions: &domain.LegacyPermissions{
			Read:   orEmpty(record.Permissions.CanRead),
			Update: orEmpty(record.Permissions.CanUpdate),
			Delete: orEmpty(record.Permissions.CanDelete),
			Admin:  orEmpty(record.Permissions.CanAdmin),
		},
	}
	if record.Platform.TargetSourceID != "" {
		uri := domain.NewFlexString(record.Platform.TargetSourceID)
		out.URI = &uri
	}

	for _, item := range record.Body.Items {
		switch item.Purpose {
		case domain.PurposeCommenting:
			out.Text = item.Value
		case domain.PurposeTagging:
			out.Tags = append(out.Tags, item.Value)
		}
	}

	if len(record.Target.Items) == 0 {
		return out
	}
	item := record.Target.Items[0]
	if media, ok := legacyMedia[item.Type]; ok {
		out.Media = &media
	}
	if item.Type == domain.TargetAnnotation {
		parent := domain.StringID(item.Source)
		out.Parent = &parent
		return out
	}
	if item.Selector == nil {
		return out
	}
	for _, sel := range item.Selector.Items {
		switch sel.Type {
		case rangeSelector:
			out.Ranges = append(out.Ranges, legacyRange(sel))
		case quoteSelector:
			quote := sel.Exact
			out.Quote = &quote
		}
	}
	return out
}

func legacyRange(sel domain.SelectorItem) domain.LegacyRange {
	var r domain.LegacyRange
	if sel.StartSelector != nil {
		start := sel.StartSelector.Value
		r.Start = &start
	}
	if sel.EndSelector != nil {
		end := sel.EndSelector.Value
		r.End = &end
	}
	if len(sel.RefinedBy) > 0 {
		startOffset, endOffset := sel.RefinedBy[0].Start, sel.RefinedBy[0].End
		r.StartOffset = &startOffset
		r.EndOffset = &endOffset
	}
	return r
}
