package household

import "encoding/json"

// appendUnique adds item to the end of col unless key already exists.
func appendUnique[T any](col []T, item T, key func(T) string) []T {
	id := key(item)
	for _, existing := range col {
		if key(existing) == id {
			return col
		}
	}
	return append(col, item)
}

// prependUnique adds item to the front of col unless key already exists.
// Feed-like collections show newest first.
func prependUnique[T any](col []T, item T, key func(T) string) []T {
	id := key(item)
	for _, existing := range col {
		if key(existing) == id {
			return col
		}
	}
	return append([]T{item}, col...)
}

// removeByID drops the element whose key matches id.
func removeByID[T any](col []T, id string, key func(T) string) []T {
	out := col[:0]
	for _, existing := range col {
		if key(existing) != id {
			out = append(out, existing)
		}
	}
	return out
}

// union adds member to a string set kept as a slice.
func union(set []string, member string) []string {
	for _, m := range set {
		if m == member {
			return set
		}
	}
	return append(set, member)
}

func contains(set []string, member string) bool {
	for _, m := range set {
		if m == member {
			return true
		}
	}
	return false
}

func decodePayload[T any](raw json.RawMessage) (T, bool) {
	var v T
	if len(raw) == 0 {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}
