package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Rule positions continue from
// first, so several style sources may be numbered as one aggregated sheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, first int, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	index := first

	var selectors []string
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(err))
				sheet.Warnings = append(sheet.Warnings, "parse error: "+err.Error())
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := strings.ToLower(string(data))
			if atRule == "@media" {
				query := joinTokens(parser.Values())
				rules := p.parseMediaBlockRules(parser, sheet, &index)
				p.log.Debug("Parsed @media block", zap.String("query", query), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: query, Rules: rules},
				})
				continue
			}
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, "skipped at-rule: "+atRule)
			p.log.Debug("Skipping @-rule", zap.String("rule", atRule))

		case css.AtRuleGrammar:
			atRule := strings.ToLower(string(data))
			sheet.Warnings = append(sheet.Warnings, "skipped at-rule: "+atRule)
			p.log.Debug("Skipping @-rule", zap.String("rule", atRule))

		case css.QualifiedRuleGrammar:
			// part of a selector group, the rest follows with BeginRulesetGrammar
			selectors = append(selectors, parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors = append(selectors, parseSelectors(data, parser.Values())...)
			rule := Rule{
				Selectors:    selectors,
				Declarations: parseBlock(parser),
				Pos:          Position{Index: index},
			}
			index++
			selectors = nil
			if len(rule.Selectors) == 0 {
				sheet.Warnings = append(sheet.Warnings, "rule without selector skipped")
				continue
			}
			sheet.Items = append(sheet.Items, StylesheetItem{Rule: &rule})
		}
	}
}

// ParseDeclarations parses the content of a style attribute (or a
// declaration block without braces). Declarations keep source order,
// repeated properties are returned as is.
func ParseDeclarations(text string) []Declaration {
	parser := css.NewParser(parse.NewInputString(text), true)

	var decls []Declaration
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return decls
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := makeDeclaration(data, parser.Values()); ok {
				decls = append(decls, d)
			}
		}
	}
}

// parseBlock parses property declarations until EndRulesetGrammar.
func parseBlock(parser *css.Parser) []Declaration {
	var decls []Declaration
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := makeDeclaration(data, parser.Values()); ok {
				decls = append(decls, d)
			}
		}
	}
}

func makeDeclaration(name []byte, values []css.Token) (Declaration, bool) {
	prop := strings.TrimSpace(string(name))
	if !strings.HasPrefix(prop, "--") {
		prop = strings.ToLower(prop)
	}
	if prop == "" {
		return Declaration{}, false
	}

	values, important := cutImportant(values)
	value := joinTokens(values)
	if value == "" {
		return Declaration{}, false
	}
	return Declaration{Property: prop, Value: value, Important: important}, true
}

// cutImportant strips trailing "!important" from declaration value tokens.
func cutImportant(values []css.Token) ([]css.Token, bool) {
	end := len(values)
	for end > 0 && values[end-1].TokenType == css.WhitespaceToken {
		end--
	}
	if end < 2 {
		return values, false
	}
	last, bang := values[end-1], values[end-2]
	if last.TokenType != css.IdentToken || !strings.EqualFold(string(last.Data), "important") {
		return values, false
	}
	if bang.TokenType != css.DelimToken || string(bang.Data) != "!" {
		return values, false
	}
	return values[:end-2], true
}

// joinTokens builds text from tokens collapsing whitespace runs into a
// single space.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = sb.Len() > 0
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// parseSelectors extracts selector strings from token data, splitting
// grouped selectors on commas outside of brackets and functions.
func parseSelectors(data []byte, values []css.Token) []string {
	var (
		selectors []string
		sb        strings.Builder
		depth     int
		space     bool
	)
	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			selectors = append(selectors, s)
		}
		sb.Reset()
		space = false
	}

	if selectorHead(data, values) {
		sb.Write(data)
	}
	for _, v := range values {
		switch v.TokenType {
		case css.WhitespaceToken:
			space = sb.Len() > 0
			continue
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				flush()
				continue
			}
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.Write(v.Data)
	}
	flush()
	return selectors
}

// selectorHead reports whether grammar data carries selector text which is
// not repeated in the token values.
func selectorHead(data []byte, values []css.Token) bool {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "{" || s == "," {
		return false
	}
	return len(values) == 0 || !bytes.Equal(values[0].Data, data)
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseMediaBlockRules parses rules inside an @media block and returns them.
func (p *Parser) parseMediaBlockRules(parser *css.Parser, sheet *Stylesheet, index *int) []Rule {
	var (
		rules     []Rule
		selectors []string
	)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			sheet.Warnings = append(sheet.Warnings, "skipped nested at-rule: "+strings.ToLower(string(data)))

		case css.QualifiedRuleGrammar:
			selectors = append(selectors, parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors = append(selectors, parseSelectors(data, parser.Values())...)
			rule := Rule{
				Selectors:    selectors,
				Declarations: parseBlock(parser),
				Pos:          Position{Index: *index},
			}
			*index++
			selectors = nil
			if len(rule.Selectors) > 0 {
				rules = append(rules, rule)
			}
		}
	}
}
