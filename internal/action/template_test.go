package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutes(t *testing.T) {
	ctx := Context{"objectId": "42", "object.email": "a@b.c"}

	out, unresolved := Render("https://x.test/{{objectId}}?email={{object.email}}", ctx)
	assert.Equal(t, "https://x.test/42?email=a@b.c", out)
	assert.Empty(t, unresolved)
}

func TestRenderPreservesUnresolved(t *testing.T) {
	out, unresolved := Render("hello {{missing}} and {{objectId}}", Context{"objectId": "1"})
	assert.Equal(t, "hello {{missing}} and 1", out)
	assert.Equal(t, []string{"missing"}, unresolved)
}

func TestRenderTrimsTokenWhitespace(t *testing.T) {
	out, unresolved := Render("{{ objectId }}", Context{"objectId": "7"})
	assert.Equal(t, "7", out)
	assert.Empty(t, unresolved)
}

func TestRenderNoPlaceholders(t *testing.T) {
	out, unresolved := Render("plain string", Context{})
	assert.Equal(t, "plain string", out)
	assert.Nil(t, unresolved)
}

func TestRenderUnterminated(t *testing.T) {
	out, _ := Render("start {{never closed", Context{})
	assert.Equal(t, "start {{never closed", out)
}

func TestNewContextKeys(t *testing.T) {
	ctx := NewContext("obj-1", "0-1", "123", "btn-1")
	assert.Equal(t, "obj-1", ctx["objectId"])
	assert.Equal(t, "0-1", ctx["objectTypeId"])
	assert.Equal(t, "123", ctx["tenantId"])
	assert.Equal(t, "123", ctx["hub_id"])
	assert.Equal(t, "btn-1", ctx["actionId"])
}

func TestAddObjectFlattensProperties(t *testing.T) {
	ctx := Context{}
	ctx.AddObject(map[string]any{
		"id": "501",
		"properties": map[string]any{
			"email":     "jane@corp.test",
			"firstname": "Jane",
			"amount":    float64(1200),
			"nothing":   nil,
		},
	})

	assert.Equal(t, "501", ctx["object.id"])
	assert.Equal(t, "jane@corp.test", ctx["object.email"])
	assert.Equal(t, "jane@corp.test", ctx["contact.email"])
	assert.Equal(t, "1200", ctx["object.amount"])
	_, ok := ctx["object.nothing"]
	assert.False(t, ok)
}

func TestAddObjectNil(t *testing.T) {
	ctx := Context{"objectId": "1"}
	ctx.AddObject(nil)
	assert.Len(t, ctx, 1)
}

func TestObjectTypeName(t *testing.T) {
	for id, want := range map[string]string{"0-1": "contacts", "0-2": "companies", "0-3": "deals", "0-5": "tickets"} {
		got, ok := ObjectTypeName(id)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ObjectTypeName("0-99")
	assert.False(t, ok)
}
