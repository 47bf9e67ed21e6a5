// Package jsonx decodes JSON out of LLM responses, which are frequently
// wrapped in markdown fences or surrounded by prose.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Unmarshal extracts the JSON payload from an LLM response and decodes
// it into out. It strips markdown code fences and leading/trailing
// prose, then tries a strict parse, then attempts to repair malformed
// JSON before giving up.
func Unmarshal(response string, out any) error {
	payload := Extract(response)
	if payload == "" {
		return fmt.Errorf("no JSON payload found in response")
	}

	if err := json.Unmarshal([]byte(payload), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to unmarshal JSON after repair: %w", err)
	}
	return nil
}

// Extract returns the JSON object or array embedded in s, or "" when
// neither delimiter pair is present.
func Extract(s string) string {
	s = stripFences(s)

	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	start, closer := objStart, byte('}')
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		start, closer = arrStart, ']'
	}
	if start == -1 {
		return ""
	}

	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx != -1 {
		s = s[idx+len("```json"):]
	} else if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
