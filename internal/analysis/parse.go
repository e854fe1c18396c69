package analysis

import (
	"fmt"
	"strings"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

// parseAnalysisJSON parses the JSON answer of an LLM analyzer
func parseAnalysisJSON(text string) (*extraction.Response, error) {
	text = strings.TrimSpace(text)

	// Models sometimes wrap the answer in a markdown code block
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	resp, err := extraction.Decode([]byte(text[startIdx : endIdx+1]))
	if err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	return resp, nil
}
