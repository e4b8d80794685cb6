package stages

import "strings"

// StripFences removes a markdown code fence around a model answer, with or
// without a language tag. Text outside the fence is dropped.
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "```")
	if start == -1 {
		return raw
	}

	body := raw[start+3:]
	if nl := strings.Index(body, "\n"); nl != -1 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || (len(tag) < 20 && !strings.ContainsAny(tag, " {[")) {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "json")
	}

	// The first closing fence ends the answer; later fences belong to prose.
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}

	return strings.TrimSpace(strings.Trim(strings.TrimSpace(body), "`"))
}
