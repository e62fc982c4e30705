package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = []string{"email", "password", "token"}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	local, domain, found := strings.Cut(trimmed, "@")
	if !found || local == "" {
		return MaskSecret(trimmed)
	}
	return local[:1] + maskToken + "@" + domain
}

// MaskSecret redacts a value while keeping its last four characters.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskMetadata returns a copy of input where string values under sensitive
// keys are masked. Nested maps are walked.
func MaskMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskValue(trimmedKey, value)
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		return maskString(key, cast)
	case map[string]any:
		return MaskMetadata(cast)
	default:
		return value
	}
}

func maskString(key, value string) string {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if !strings.Contains(lower, sensitive) {
			continue
		}
		if sensitive == "email" {
			return MaskEmail(value)
		}
		return MaskSecret(value)
	}
	return value
}
