// internal/action/template.go
package action

import (
	"fmt"
	"strings"

	jmes "github.com/jmespath/go-jmespath"
)

// objectTypes is the closed lookup from HubSpot object type ids to CRM object
// names. Anything else degrades to an empty attribute set.
var objectTypes = map[string]string{
	"0-1": "contacts",
	"0-2": "companies",
	"0-3": "deals",
	"0-5": "tickets",
}

// ObjectTypeName maps a type id like "0-1" to its CRM object name.
func ObjectTypeName(typeID string) (string, bool) {
	name, ok := objectTypes[typeID]
	return name, ok
}

// Context is the flat substitution map placeholders resolve against.
type Context map[string]string

// NewContext seeds the scalar fields every dispatch exposes. hub_id is kept as
// a legacy alias for templates written against the old frontend.
func NewContext(objectID, objectTypeID, hubID, actionID string) Context {
	return Context{
		"objectId":     objectID,
		"objectTypeId": objectTypeID,
		"tenantId":     hubID,
		"hub_id":       hubID,
		"actionId":     actionID,
	}
}

// AddObject flattens a fetched CRM object into the context. Properties become
// addressable as object.<name> and, for backward compatibility, as
// contact.<name>; the object's own id rides along the same way.
func (c Context) AddObject(obj map[string]any) {
	if obj == nil {
		return
	}
	if id, err := jmes.Search("id", obj); err == nil && id != nil {
		c.set("id", id)
	}
	props, err := jmes.Search("properties", obj)
	if err != nil {
		return
	}
	if m, ok := props.(map[string]any); ok {
		for k, v := range m {
			if v == nil {
				continue
			}
			c.set(k, v)
		}
	}
}

func (c Context) set(key string, v any) {
	s := fmt.Sprint(v)
	c["object."+key] = s
	c["contact."+key] = s
}

// Render substitutes every {{token}} occurrence in s using the context.
// Unmatched placeholders are preserved verbatim and reported back so callers
// can log them; they are never an error. Single pass, no regex.
func Render(s string, ctx Context) (string, []string) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	var unresolved []string
	for {
		open := strings.Index(s, "{{")
		if open < 0 {
			b.WriteString(s)
			break
		}
		close := strings.Index(s[open:], "}}")
		if close < 0 {
			b.WriteString(s)
			break
		}
		close += open
		b.WriteString(s[:open])
		token := s[open+2 : close]
		key := strings.TrimSpace(token)
		if v, ok := ctx[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[open : close+2])
			unresolved = append(unresolved, key)
		}
		s = s[close+2:]
	}
	return b.String(), unresolved
}
