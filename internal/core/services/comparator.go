package services

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/viant/godiff"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// Comparator checks that a migrated corpus matches its source modulo known
// format drift.
type Comparator struct {
	differs *godiff.Registry
}

// NewComparator creates a comparator.
func NewComparator() *Comparator {
	return &Comparator{differs: godiff.NewRegistry()}
}

// Compare classifies every record of a against b by identifier.
//
// Both sides are stripped of drift before comparison: uri is reduced to its
// string form, archived, citation and deleted are removed, and an empty quote
// is treated as absent. Matched keeps the original record from a; mismatched
// pairs hold the stripped copies.
func (c *Comparator) Compare(a, b []domain.LegacyAnnotation) *domain.Comparison {
	return c.compare(a, b, func(x, y *domain.LegacyAnnotation) (domain.LegacyAnnotation, domain.LegacyAnnotation) {
		return stripDrift(x), stripDrift(y)
	})
}

// CompareReadback compares pulled records in a against records read back
// from the destination store in b.
//
// On top of the drift Compare ignores, it ignores what conversion does not
// carry or rewrites: totalComments and unknown members, a parent on anything
// but a reply, the type of parent and user ids, ranges and quote on replies,
// offsets given without their partner, anchors of a range that lacked one in
// the source, and the difference between an absent and an empty member.
func (c *Comparator) CompareReadback(a, b []domain.LegacyAnnotation) *domain.Comparison {
	return c.compare(a, b, stripReadback)
}

type stripFunc func(a, b *domain.LegacyAnnotation) (domain.LegacyAnnotation, domain.LegacyAnnotation)

func (c *Comparator) compare(a, b []domain.LegacyAnnotation, strip stripFunc) *domain.Comparison {
	index := make(map[string]int, len(b))
	for i := range b {
		if _, seen := index[b[i].ID.Key()]; !seen {
			index[b[i].ID.Key()] = i
		}
	}
	logger.Debug("comparing %d records against %d", len(a), len(index))

	result := &domain.Comparison{}
	for i := range a {
		j, ok := index[a[i].ID.Key()]
		if !ok {
			result.Missing = append(result.Missing, a[i])
			continue
		}
		left, right := strip(&a[i], &b[j])
		pair := domain.MismatchedPair{A: left, B: right}
		lt, lerr := jsonTree(left)
		rt, rerr := jsonTree(right)
		if lerr == nil && rerr == nil {
			if reflect.DeepEqual(lt, rt) {
				result.Matched = append(result.Matched, a[i])
				continue
			}
			pair.Changes = c.changes(lt, rt)
		}
		result.Mismatched = append(result.Mismatched, pair)
	}
	logger.Info("compare: %d matched, %d mismatched, %d missing",
		len(result.Matched), len(result.Mismatched), len(result.Missing))
	return result
}

// changes lists field differences between two JSON value trees.
func (c *Comparator) changes(from, to map[string]any) []domain.FieldChange {
	differ, err := c.differs.Get(reflect.TypeOf(from), reflect.TypeOf(to), &godiff.Tag{})
	if err != nil {
		logger.Debug("no differ for %T: %v", from, err)
		return nil
	}
	log := differ.Diff(from, to)
	if log == nil {
		return nil
	}
	changes := make([]domain.FieldChange, 0, len(log.Changes))
	for _, ch := range log.Changes {
		changes = append(changes, domain.FieldChange{
			Path: fmt.Sprint(ch.Path),
			Kind: fmt.Sprint(ch.Type),
			From: ch.From,
			To:   ch.To,
		})
	}
	return changes
}

// stripDrift returns a copy without the fields the two schema versions
// disagree on.
func stripDrift(record *domain.LegacyAnnotation) domain.LegacyAnnotation {
	out := record.Clone()
	out.Archived = nil
	out.Citation = nil
	out.Deleted = nil
	if out.URI != nil {
		uri := out.URI.Coerced()
		out.URI = &uri
	}
	if out.Quote != nil && *out.Quote == "" {
		out.Quote = nil
	}
	return out
}

// stripReadback strips a source record and its stored copy down to what a
// conversion round trip preserves.
func stripReadback(source, stored *domain.LegacyAnnotation) (domain.LegacyAnnotation, domain.LegacyAnnotation) {
	a, b := stripDrift(source), stripDrift(stored)
	for _, r := range []*domain.LegacyAnnotation{&a, &b} {
		stripLossy(r)
	}
	// Anchors missing in the source may have been filled in by a repair.
	for i := range a.Ranges {
		if i >= len(b.Ranges) || hasAnchors(&a.Ranges[i]) {
			continue
		}
		a.Ranges[i].Start, a.Ranges[i].End = nil, nil
		b.Ranges[i].Start, b.Ranges[i].End = nil, nil
	}
	return a, b
}

// stripLossy normalises the members conversion drops or rewrites.
func stripLossy(r *domain.LegacyAnnotation) {
	r.ForgetEmptyMembers()
	r.TotalComments = nil
	r.Extra = nil

	if r.URI != nil && r.URI.String() == "" {
		r.URI = nil
	}

	if parent, ok := r.ReplyTo(); ok && r.MediaType() == domain.MediaComment {
		p := domain.StringID(parent.Key())
		r.Parent = &p
	} else {
		r.Parent = nil
	}

	user := domain.LegacyUser{ID: domain.NewFlexString("")}
	if r.User != nil {
		user = domain.LegacyUser{ID: r.User.ID.Coerced(), Name: r.User.Name}
	}
	r.User = &user

	perms := domain.LegacyPermissions{}
	if r.Permissions != nil {
		perms = *r.Permissions
	}
	r.Permissions = &domain.LegacyPermissions{
		Read:   nonNilStrings(perms.Read),
		Update: nonNilStrings(perms.Update),
		Delete: nonNilStrings(perms.Delete),
		Admin:  nonNilStrings(perms.Admin),
	}

	if r.MediaType() == domain.MediaComment {
		r.Ranges = nil
		r.Quote = nil
		return
	}
	for i := range r.Ranges {
		rg := &r.Ranges[i]
		rg.Extra = nil
		if rg.StartOffset == nil || rg.EndOffset == nil {
			rg.StartOffset, rg.EndOffset = nil, nil
		}
	}
}

func hasAnchors(r *domain.LegacyRange) bool {
	return r.Start != nil && r.End != nil && *r.Start != "" && *r.End != ""
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// jsonTree converts a record into generic JSON values so equality does not
// depend on Go field layout.
func jsonTree(record domain.LegacyAnnotation) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
