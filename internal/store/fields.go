package store

// Typed accessors for schemaless payloads. JSON round-trips turn numbers into
// float64 and nested objects into map[string]any; these helpers normalize that
// back into the shapes the resource mappers need. Missing or mismatched keys
// yield zero values.

// Str returns fields[key] as a string.
func Str(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// Int returns fields[key] as an int.
func Int(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// StrMap returns fields[key] as a map of string values, such as the labeled
// answer options of a question.
func StrMap(fields map[string]any, key string) map[string]string {
	raw, ok := fields[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
