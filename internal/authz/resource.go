package authz

import (
	"fmt"
	"strconv"
	"time"
)

// OwnerAttribute carries the owning user's ID on every resource.
const OwnerAttribute = "author_id"

// NewResourceID is the ID sent for a resource that does not exist yet.
const NewResourceID = "0"

// Fact is the minimal view of a stored entity needed to authorize against it.
type Fact struct {
	ID         any
	OwnerID    any
	Attributes map[string]any
}

// Resource is the resource as sent to the PDP. All attribute values are strings.
type Resource struct {
	Kind       string
	ID         string
	Attributes map[string]string
}

// BuildResource describes the target of an action. A nil fact means the
// action targets a resource that does not exist yet (create) or the
// collection (list); ownership is then attributed to the actor.
func BuildResource(kind string, fact *Fact, actor Identity) Resource {
	if fact == nil {
		return Resource{
			Kind:       kind,
			ID:         NewResourceID,
			Attributes: map[string]string{OwnerAttribute: actor.ID},
		}
	}

	attrs := make(map[string]string, len(fact.Attributes)+1)
	for k, v := range fact.Attributes {
		attrs[k] = Stringify(v)
	}
	// The stored owner always wins over a same-named free-form attribute.
	attrs[OwnerAttribute] = Stringify(fact.OwnerID)

	return Resource{
		Kind:       kind,
		ID:         Stringify(fact.ID),
		Attributes: attrs,
	}
}

// Stringify renders a scalar in its canonical string form so that 7 and "7"
// compare equal at the PDP.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
