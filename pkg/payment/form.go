package payment

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// EncodeForm serializes a nested body into the bracket notation Stripe's
// form-encoded API expects: {a:{b:1}} becomes a[b]=1, arrays become
// k[0]=..&k[1]=.. with element order preserved, and nil values are
// omitted entirely. Object keys are emitted in sorted order so the
// output is deterministic.
func EncodeForm(body map[string]any) string {
	var pairs []string
	appendFormValue(&pairs, "", body)
	return strings.Join(pairs, "&")
}

func appendFormValue(pairs *[]string, key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			appendFormValue(pairs, childKey(key, k), v[k])
		}
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			appendFormValue(pairs, childKey(key, k), v[k])
		}
	case []any:
		for i, item := range v {
			appendFormValue(pairs, fmt.Sprintf("%s[%d]", key, i), item)
		}
	case []map[string]any:
		for i, item := range v {
			appendFormValue(pairs, fmt.Sprintf("%s[%d]", key, i), item)
		}
	default:
		*pairs = append(*pairs, key+"="+url.QueryEscape(fmt.Sprint(v)))
	}
}

func childKey(parent, key string) string {
	if parent == "" {
		return url.QueryEscape(key)
	}
	return parent + "[" + url.QueryEscape(key) + "]"
}
