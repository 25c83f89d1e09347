package codegen

import (
	"bytes"
	"fmt"
)

// Owned reports whether existing content was generated for toolName and may
// be overwritten.
func Owned(existing []byte, toolName string) bool {
	marker := fmt.Sprintf("GeneratedCode(%s", literal(toolName))
	return bytes.Contains(existing, []byte(marker))
}
