package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate a credential
// baked into a catalog URL.
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}`),
		Description: "Potential GitHub token detected",
	},
	{
		Name:        "AWS Signature",
		Pattern:     regexp.MustCompile(`(?i)x-amz-(signature|credential)=`),
		Description: "Presigned AWS URL detected",
	},
	{
		Name:        "GCS Signature",
		Pattern:     regexp.MustCompile(`(?i)x-goog-signature=`),
		Description: "Signed Google Cloud Storage URL detected",
	},
}

// sensitiveQueryKeys are query parameter names that usually carry secrets.
var sensitiveQueryKeys = []string{"token", "access_token", "api_key", "apikey", "key", "secret", "password", "sig", "signature"}

// SensitiveDataFinding represents a detected credential in one tool field.
type SensitiveDataFinding struct {
	Tool        string
	Field       string
	Description string
	Preview     string // Redacted URL
}

// DetectSensitiveData scans the URL fields of every tool. Such URLs end up
// in logs and events, so credentials in them leak.
func DetectSensitiveData(tools []*Tool) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	for _, t := range tools {
		for _, f := range []struct{ name, value string }{
			{luaFieldURL, t.URL},
			{luaFieldHashURL, t.HashURL},
		} {
			if f.value == "" {
				continue
			}
			if desc, ok := inspectURL(f.value); ok {
				findings = append(findings, SensitiveDataFinding{
					Tool:        t.Name,
					Field:       f.name,
					Description: desc,
					Preview:     redactURL(f.value),
				})
			}
		}
	}
	return findings
}

func inspectURL(raw string) (string, bool) {
	for _, p := range sensitivePatterns {
		if p.Pattern.MatchString(raw) {
			return p.Description, true
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.User != nil {
		return "Credentials embedded in URL user info", true
	}
	q := u.Query()
	for _, key := range sensitiveQueryKeys {
		for k := range q {
			if strings.EqualFold(k, key) {
				return fmt.Sprintf("Potential secret in query parameter %q", k), true
			}
		}
	}
	return "", false
}

// redactURL keeps scheme, host and path and hides user info and query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED]"
	}
	var sb strings.Builder
	if u.Scheme != "" {
		sb.WriteString(u.Scheme + "://")
	}
	if u.User != nil {
		sb.WriteString("[REDACTED]@")
	}
	sb.WriteString(u.Host)
	path := u.Path
	for _, p := range sensitivePatterns {
		path = p.Pattern.ReplaceAllString(path, "[REDACTED]")
	}
	sb.WriteString(path)
	if u.RawQuery != "" {
		sb.WriteString("?[REDACTED]")
	}
	return sb.String()
}

// FormatSensitiveDataWarning formats findings into a user-facing warning.
func FormatSensitiveDataWarning(findings []SensitiveDataFinding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n⚠️  WARNING: Potential credentials detected in catalog URLs\n\n")
	for i, f := range findings {
		sb.WriteString(fmt.Sprintf("%d. %s (%s.%s)\n", i+1, f.Description, f.Tool, f.Field))
		sb.WriteString(fmt.Sprintf("   Preview: %s\n\n", f.Preview))
	}
	sb.WriteString("Catalog URLs are written to logs and progress events.\n")
	sb.WriteString("Prefer a mirror that does not need credentials in the URL.\n")
	return sb.String()
}
