package models

// ValueKind tags the variant held by a Value
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBool    ValueKind = "bool"
	KindStrings ValueKind = "strings"
)

// Value is one entry of the conversation context: a string, number, bool or string list
type Value struct {
	Kind    ValueKind `json:"kind"`
	Str     string    `json:"str,omitempty"`
	Num     float64   `json:"num,omitempty"`
	Bool    bool      `json:"bool,omitempty"`
	Strings []string  `json:"strings,omitempty"`
}

func StringValue(s string) Value    { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value   { return Value{Kind: KindNumber, Num: n} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func StringsValue(s []string) Value { return Value{Kind: KindStrings, Strings: append([]string(nil), s...)} }

// Known context keys
const (
	KeyDietaryPreference = "dietary_preference"
	KeySpicePreference   = "spice_preference"
	KeyAllergyInfo       = "allergy_info"
	KeyStylePreference   = "style_preference"
	KeyPendingLineID     = "pending_line_id"
	KeyPendingCandidates = "pending_candidates"
	KeySkippedOptions    = "skipped_options"
	KeyAIFollowUps       = "ai_follow_up_questions"
	KeyRecentMessages    = "recent_messages"
)

// Context is the open key-value bag accumulated over a conversation.
// Accessors check the variant, so a key holding the wrong kind reads as absent.
type Context map[string]Value

func (c Context) GetString(key string) (string, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

func (c Context) GetNumber(key string) (float64, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

func (c Context) GetBool(key string) (bool, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

func (c Context) GetStrings(key string) ([]string, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindStrings {
		return nil, false
	}
	return v.Strings, true
}

func (c Context) SetString(key, s string)           { c[key] = StringValue(s) }
func (c Context) SetNumber(key string, n float64)   { c[key] = NumberValue(n) }
func (c Context) SetBool(key string, b bool)        { c[key] = BoolValue(b) }
func (c Context) SetStrings(key string, s []string) { c[key] = StringsValue(s) }

// AppendString appends to a string-list entry, keeping at most limit entries (0 = unbounded)
func (c Context) AppendString(key, s string, limit int) {
	list, _ := c.GetStrings(key)
	list = append(append([]string(nil), list...), s)
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	c[key] = Value{Kind: KindStrings, Strings: list}
}

func (c Context) Delete(keys ...string) {
	for _, k := range keys {
		delete(c, k)
	}
}

func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		if v.Strings != nil {
			v.Strings = append([]string(nil), v.Strings...)
		}
		out[k] = v
	}
	return out
}
