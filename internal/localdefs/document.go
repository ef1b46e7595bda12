package localdefs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// DefaultPolicyVersion is set on a document when the version is omitted.
const DefaultPolicyVersion = "2012-10-17"

// Document is an IAM policy document.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement" validate:"required,min=1,dive"`
}

// Statement is a single statement in a Document.
type Statement struct {
	Sid          string                           `json:"Sid,omitempty"`
	Effect       string                           `json:"Effect" validate:"oneof=Allow Deny"`
	Principal    map[string]StringList            `json:"Principal,omitempty"`
	NotPrincipal map[string]StringList            `json:"NotPrincipal,omitempty"`
	Action       StringList                       `json:"Action,omitempty"`
	NotAction    StringList                       `json:"NotAction,omitempty"`
	Resource     StringList                       `json:"Resource,omitempty"`
	NotResource  StringList                       `json:"NotResource,omitempty"`
	Condition    map[string]map[string]StringList `json:"Condition,omitempty"`
}

// StringList is a policy element that may be written either as a single
// string or as a list of strings.
type StringList []string

// UnmarshalJSON accepts "x" and ["x", "y"].
func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*s = many
	return nil
}

// MarshalJSON writes a single element as a bare string.
func (s StringList) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

// ParseDocument decodes a JSON policy document, defaulting Version.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	if doc.Version == "" {
		doc.Version = DefaultPolicyVersion
	}
	return doc, nil
}

// ParseRemoteDocument decodes a document as returned by IAM, which
// URL-encodes it.
func ParseRemoteDocument(encoded string) (Document, error) {
	raw, err := url.QueryUnescape(encoded)
	if err != nil {
		return Document{}, fmt.Errorf("unescape policy document: %w", err)
	}
	return ParseDocument([]byte(raw))
}

// JSON renders the document compactly for IAM create calls.
func (d Document) JSON() (string, error) {
	if d.Version == "" {
		d.Version = DefaultPolicyVersion
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EqualDocuments compares two documents structurally, ignoring statement
// order and the order of values inside every list element.
func EqualDocuments(a, b Document) bool {
	if a.Version == "" {
		a.Version = DefaultPolicyVersion
	}
	if b.Version == "" {
		b.Version = DefaultPolicyVersion
	}
	return cmp.Equal(sortStatements(a), sortStatements(b),
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(x, y string) bool { return x < y }),
	)
}

// sortStatements orders statements by their canonical encoding so that
// statement order does not matter.
func sortStatements(d Document) Document {
	type keyed struct {
		key  string
		stmt Statement
	}
	ks := make([]keyed, len(d.Statement))
	for i, st := range d.Statement {
		ks[i] = keyed{key: canonical(st), stmt: st}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })

	out := Document{Version: d.Version, Statement: make([]Statement, len(ks))}
	for i, k := range ks {
		out.Statement[i] = k.stmt
	}
	return out
}

func canonical(st Statement) string {
	c := st
	c.Action = sortedList(st.Action)
	c.NotAction = sortedList(st.NotAction)
	c.Resource = sortedList(st.Resource)
	c.NotResource = sortedList(st.NotResource)
	c.Principal = sortedMap(st.Principal)
	c.NotPrincipal = sortedMap(st.NotPrincipal)
	if st.Condition != nil {
		c.Condition = make(map[string]map[string]StringList, len(st.Condition))
		for op, m := range st.Condition {
			c.Condition[op] = sortedMap(m)
		}
	}
	// Maps marshal with sorted keys, so the encoding is deterministic.
	b, _ := json.Marshal(c)
	return string(b)
}

func sortedList(l StringList) StringList {
	if len(l) == 0 {
		return nil
	}
	out := append(StringList(nil), l...)
	sort.Strings(out)
	return out
}

func sortedMap(m map[string]StringList) map[string]StringList {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]StringList, len(m))
	for k, v := range m {
		out[k] = sortedList(v)
	}
	return out
}
