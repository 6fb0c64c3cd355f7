package booking

import "encoding/json"

// maxDetailsUnwrap bounds how many layers of JSON-in-a-string are peeled off
// a legacy process-order-details payload.
const maxDetailsUnwrap = 3

// NormalizeOrderDetails extracts the human-readable comment from a
// process-order-details payload. Historic clients stored three shapes: plain
// text, a JSON object whose "customDetails" or "details" key carries the real
// comment, and that same JSON object encoded once more as a JSON string.
// Unrecognized payloads are returned as-is.
func NormalizeOrderDetails(raw string) string {
	if raw == "" {
		return ""
	}

	current := raw
	for i := 0; i < maxDetailsUnwrap; i++ {
		// Peel a double-encoded layer: a JSON string containing the payload.
		var unwrapped string
		if err := json.Unmarshal([]byte(current), &unwrapped); err == nil {
			current = unwrapped
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(current), &obj); err != nil {
			// Not JSON: treat as the comment text itself.
			return current
		}

		inner, ok := obj["customDetails"]
		if !ok {
			inner, ok = obj["details"]
		}
		if !ok {
			// A JSON object without a known comment key carries no usable
			// text; fall back to the raw payload.
			return raw
		}

		var s string
		if err := json.Unmarshal(inner, &s); err == nil {
			current = s
			continue
		}
		// Comment key holds a nested structure; keep unwrapping it.
		current = string(inner)
	}
	return current
}
