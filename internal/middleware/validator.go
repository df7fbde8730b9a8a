package middleware

import (
	"fmt"
	"strings"
)

// maxPromptLen bounds user prompts before any retrieval work happens
const maxPromptLen = 8192

// SanitizePrompt removes null bytes and control characters from user input
func SanitizePrompt(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidatePrompt checks a sanitized prompt is usable
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if len(prompt) > maxPromptLen {
		return fmt.Errorf("prompt too long (max %d bytes)", maxPromptLen)
	}
	return nil
}
