// Package annojs converts AnnoJS records returned by the search service into
// Catcha records accepted by the destination store.
//
// Conversion happens in three steps. A coarse pre-check separates records
// that do not carry the media discriminator at all. A repair pipeline fixes
// known upstream defects on a copy of the record. The repaired copy is then
// mapped field by field into canonical form.
//
// Field mapping:
//
//	id, created, updated      -> id, created, modified
//	user{id,name}             -> creator{id,name}
//	permissions.{read,...}    -> permissions.{can_read,...}
//	contextId, collectionId   -> platform.context_id, platform.collection_id
//	uri                       -> platform.target_source_id, target source
//	deleted                   -> platform.deleted
//	text, tags                -> body items (commenting, tagging)
//	media, ranges, quote      -> target item and selectors
//	parent (media "comment")  -> Annotation target item
//
// archived, citation and totalComments are not carried over. An empty quote
// produces no TextQuoteSelector.
package annojs
