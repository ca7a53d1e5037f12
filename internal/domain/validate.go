package domain

import "encoding/json"

// Shape validators confirm that decoded JSON carries the fields and
// primitive types an entity requires before the value is trusted.
// They operate on generically decoded values (map[string]any / []any)
// so that a structurally wrong blob is rejected as invalid format
// rather than failing the JSON decode itself.

// ValidSettingsShape reports whether v looks like a Settings object.
func ValidSettingsShape(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return isBool(m["isFirstLaunch"]) &&
		isBool(m["isDarkMode"]) &&
		isString(m["appVersion"]) &&
		isNumber(m["autoLockTimeMinutes"]) &&
		isBool(m["autoDetectClipboard"]) &&
		isString(m["createdAt"]) &&
		isString(m["updatedAt"])
}

// ValidCategoryShape reports whether v looks like a Category object.
func ValidCategoryShape(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return isString(m["id"]) &&
		isString(m["name"]) &&
		isString(m["color"]) &&
		isString(m["icon"]) &&
		isNumber(m["sortOrder"]) &&
		isString(m["createdAt"]) &&
		isString(m["updatedAt"])
}

// ValidLinkShape reports whether v looks like a Link object.
func ValidLinkShape(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["tags"].([]any); !ok {
		return false
	}
	return isString(m["id"]) &&
		isString(m["url"]) &&
		isString(m["title"]) &&
		optString(m, "description") &&
		optString(m, "thumbnailUrl") &&
		isString(m["categoryId"]) &&
		isBool(m["isFavorite"]) &&
		optString(m, "notes") &&
		isNumber(m["sortOrder"]) &&
		optString(m, "lastAccessedAt") &&
		isNumber(m["accessCount"]) &&
		isString(m["createdAt"]) &&
		isString(m["updatedAt"])
}

// ValidCategoryListShape reports whether v is a list of valid categories.
func ValidCategoryListShape(v any) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if !ValidCategoryShape(item) {
			return false
		}
	}
	return true
}

// ValidLinkListShape reports whether v is a list of valid links.
func ValidLinkListShape(v any) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if !ValidLinkShape(item) {
			return false
		}
	}
	return true
}

// DecodeShape decodes raw JSON into the generic form the shape
// validators inspect. Returns false when raw is not valid JSON.
func DecodeShape(raw []byte) (any, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

// optString accepts a missing field or a string value.
func optString(m map[string]any, key string) bool {
	v, present := m[key]
	if !present {
		return true
	}
	return isString(v)
}
