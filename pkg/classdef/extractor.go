package classdef

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ensworks/prodgraph/pkg/common/errors"
)

// Class-definition files wrap embedded markup in XData blocks:
//
//	Class Demo.Production Extends Ens.Production
//	{
//	XData ProductionDefinition
//	{
//	<Production Name="Demo.Production">...</Production>
//	}
//	}
//
// ExtractXData isolates the inner content of one named block. The content is
// returned exactly as written (routing-rule conditions carry significant
// whitespace), and nested braces inside the block are tolerated.

var classDeclRe = regexp.MustCompile(`(?m)^\s*Class\s+([\w.]+)`)

// ClassName returns the name of the first class declared in text, or "".
func ClassName(text string) string {
	m := classDeclRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractXData returns the inner content of the named XData block.
// It fails with ParseError(MissingSegment) when the block is absent and
// ParseError(InvalidStructure) when its braces never balance.
func ExtractXData(text, blockName string) (string, error) {
	markerRe := regexp.MustCompile(`(?m)^\s*XData\s+` + regexp.QuoteMeta(blockName) + `\b`)
	loc := markerRe.FindStringIndex(text)
	if loc == nil {
		return "", errors.NewParseError(errors.MissingSegment,
			fmt.Sprintf("XData block %q not found", blockName), nil)
	}

	rest := text[loc[1]:]
	open := strings.IndexByte(rest, '{')
	if open == -1 {
		return "", errors.NewParseError(errors.InvalidStructure,
			fmt.Sprintf("XData block %q has no opening brace", blockName), nil)
	}

	// Scan for the matching close brace, counting nesting. Markup inside the
	// block may itself contain braces (e.g. in condition expressions).
	depth := 0
	for i := open; i < len(rest); i++ {
		switch rest[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open+1 : i], nil
			}
		}
	}

	return "", errors.NewParseError(errors.InvalidStructure,
		fmt.Sprintf("XData block %q is not closed", blockName), nil)
}
