package component

// ChildIDs lists the ids c refers to, in render order. The first matching
// shape wins:
//
//  1. a children list
//  2. a single child
//  3. a frontChild/backChild pair
//  4. a Modal's trigger and content
//  5. a Tabs component's tab contents
//  6. a template
//  7. an items list whose entries carry trigger and content
func ChildIDs(c Component) []string {
	if list, ok := c.Props["children"]; ok && isList(list) {
		return stringsOf(list)
	}
	if child, ok := c.StringProp("child"); ok {
		return []string{child}
	}
	_, front := c.Props["frontChild"]
	_, back := c.Props["backChild"]
	if front || back {
		return collect(c.Props, "frontChild", "backChild")
	}
	if c.Type == TypeModal {
		return collect(c.Props, "trigger", "content")
	}
	if c.Type == TypeTabs {
		var ids []string
		for _, tab := range listOf(c.Props["tabs"]) {
			if entry, ok := tab.(map[string]any); ok {
				ids = append(ids, collect(entry, "content")...)
			}
		}
		return ids
	}
	if tmpl, ok := c.Props["template"]; ok {
		return templateIDs(tmpl)
	}
	if items, ok := c.Props["items"]; ok && isList(items) {
		var ids []string
		for _, item := range listOf(items) {
			if entry, ok := item.(map[string]any); ok {
				ids = append(ids, collect(entry, "trigger", "content")...)
			}
		}
		return ids
	}
	return nil
}

// templateIDs accepts a bare id or an object naming the id under componentId.
func templateIDs(tmpl any) []string {
	switch t := tmpl.(type) {
	case string:
		return []string{t}
	case map[string]any:
		return collect(t, "componentId")
	}
	return nil
}

func collect(m map[string]any, keys ...string) []string {
	var ids []string
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	}
	return false
}

func listOf(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}

func stringsOf(v any) []string {
	var ids []string
	for _, item := range listOf(v) {
		if s, ok := item.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}
