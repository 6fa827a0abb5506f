package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyFixture = `{
	"id": 17,
	"created": "2017-05-01T10:00:00+00:00",
	"updated": "2017-05-02T10:00:00+00:00",
	"text": "<p>note</p>",
	"tags": ["a", "b"],
	"user": {"id": 1234, "name": "Ada"},
	"permissions": {"read": [], "update": ["1234"], "delete": ["1234"], "admin": ["1234"]},
	"contextId": "course-1",
	"collectionId": "coll-1",
	"uri": 88,
	"media": "text",
	"ranges": [{"start": "/p[1]", "end": "/p[1]", "startOffset": 0, "endOffset": 5, "xpath": {"k": 1}}],
	"quote": "hello",
	"parent": "0",
	"totalComments": 2,
	"archived": false,
	"citation": null,
	"deleted": false,
	"ojectId": "legacy-typo"
}`

func TestLegacyAnnotation_RoundTripKeepsUnknownMembers(t *testing.T) {
	var a LegacyAnnotation
	require.NoError(t, json.Unmarshal([]byte(legacyFixture), &a))

	assert.Equal(t, "17", a.ID.String())
	assert.Equal(t, "1234", a.User.ID.String())
	assert.Equal(t, "88", a.URIString())
	assert.False(t, a.URI.IsString())
	assert.Equal(t, MediaText, a.MediaType())
	assert.Equal(t, "hello", a.QuoteString())
	assert.Contains(t, a.Extra, "ojectId")
	assert.Contains(t, a.Ranges[0].Extra, "xpath")

	out, err := json.Marshal(a)
	require.NoError(t, err)

	var want, got map[string]any
	require.NoError(t, json.Unmarshal([]byte(legacyFixture), &want))
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, want, got)
}

func TestLegacyAnnotation_EmptyMembersRoundTrip(t *testing.T) {
	const input = `{"id": 3, "text": "", "tags": [], "created": "", "contextId": "", "collectionId": null}`
	var a LegacyAnnotation
	require.NoError(t, json.Unmarshal([]byte(input), &a))

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))

	a.Text = "filled"
	out, err = json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"text":"filled"`)

	a.ForgetEmptyMembers()
	out, err = json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 3, "text": "filled"}`, string(out))
}

func TestDecodeLegacy_MistypedMembers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		id    string
	}{
		{"tags as string", `{"id": 5, "media": "text", "tags": "oops"}`, "5"},
		{"range start as number", `{"id": "s-1", "ranges": [{"start": 4}]}`, "s-1"},
		{"user id as object", `{"id": 6, "user": {"id": {"x": 1}}}`, "6"},
		{"id as object", `{"id": {"x": 1}, "media": "text"}`, ""},
		{"not an object", `[1, 2]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeLegacy([]byte(tt.input))
			require.NoError(t, err)

			assert.Error(t, a.DecodeError())
			assert.Equal(t, tt.id, a.ID.String())

			out, err := json.Marshal(a)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))

			c := a.Clone()
			assert.Error(t, c.DecodeError())
			cloned, err := json.Marshal(c)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(cloned))
		})
	}
}

func TestDecodeLegacy_InvalidJSON(t *testing.T) {
	_, err := DecodeLegacy([]byte(`{"id": 1,`))
	assert.Error(t, err)

	a, err := DecodeLegacy([]byte(legacyFixture))
	require.NoError(t, err)
	assert.NoError(t, a.DecodeError())
}

func TestLegacyAnnotation_MistypedRowInList(t *testing.T) {
	var rows []LegacyAnnotation
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 1}, {"id": 2, "tags": 9}, {"id": 3}]`), &rows))

	require.Len(t, rows, 3)
	assert.NoError(t, rows[0].DecodeError())
	assert.Error(t, rows[1].DecodeError())
	assert.NoError(t, rows[2].DecodeError())
}

func TestLegacyAnnotation_ReplyTo(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reply  bool
		parent string
	}{
		{"no parent", `{"id": 1}`, false, ""},
		{"sentinel string", `{"id": 1, "parent": "0"}`, false, ""},
		{"sentinel number", `{"id": 1, "parent": 0}`, false, ""},
		{"null parent", `{"id": 1, "parent": null}`, false, ""},
		{"reply", `{"id": 2, "parent": "1"}`, true, "1"},
		{"numeric reply", `{"id": 2, "parent": 1}`, true, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a LegacyAnnotation
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))

			parent, ok := a.ReplyTo()
			assert.Equal(t, tt.reply, ok)
			assert.Equal(t, tt.reply, a.IsReply())
			assert.Equal(t, tt.parent, parent.String())
		})
	}
}

func TestLegacyAnnotation_CloneIsDeep(t *testing.T) {
	var a LegacyAnnotation
	require.NoError(t, json.Unmarshal([]byte(legacyFixture), &a))

	c := a.Clone()
	c.Tags[0] = "changed"
	*c.Media = "image"
	*c.Ranges[0].Start = "/div[9]"
	c.Permissions.Update[0] = "other"
	c.User.Name = "Grace"
	delete(c.Extra, "ojectId")

	assert.Equal(t, "a", a.Tags[0])
	assert.Equal(t, MediaText, a.MediaType())
	assert.Equal(t, "/p[1]", *a.Ranges[0].Start)
	assert.Equal(t, "1234", a.Permissions.Update[0])
	assert.Equal(t, "Ada", a.User.Name)
	assert.Contains(t, a.Extra, "ojectId")
}

func TestLegacyAnnotation_MissingMedia(t *testing.T) {
	var a LegacyAnnotation
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x"}`), &a))

	assert.False(t, a.HasMedia())
	assert.Empty(t, a.MediaType())
	assert.Empty(t, a.URIString())
	assert.Empty(t, a.QuoteString())
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		value    string
		isString bool
	}{
		{"string", `"https://x"`, "https://x", true},
		{"number", `12`, "12", false},
		{"bool", `true`, "true", false},
		{"null", `null`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.value, f.String())
			assert.Equal(t, tt.isString, f.IsString())

			coerced, err := json.Marshal(f.Coerced())
			require.NoError(t, err)
			assert.JSONEq(t, `"`+tt.value+`"`, string(coerced))
		})
	}

	var f FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"a": 1}`), &f))
}

func TestCanonicalAnnotation_Reply(t *testing.T) {
	c := CanonicalAnnotation{
		ID: StringID("2"),
		Target: Target{Items: []TargetItem{
			{Type: TargetAnnotation, Source: "1"},
		}},
	}

	parent, ok := c.ReplyTo()
	require.True(t, ok)
	assert.Equal(t, "1", parent.String())

	top := CanonicalAnnotation{Target: Target{Items: []TargetItem{{Type: TargetText, Source: "https://x"}}}}
	assert.False(t, top.IsReply())
}
