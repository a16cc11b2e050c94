/*
 * Copyright 2025 The DocFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package store provides the document store implementations: an in-memory
// map for tests and embedding, a diskv backed file store and a SQL store
// for mysql and postgres.
//
// Package store 提供文档存储实现。
package store

import (
	"fmt"
	"strings"

	"github.com/rulego/docflow/document"
)

// The search DSL is a boolean tree of item:"value" terms joined by AND/OR:
//
//	(type:"scheduler" AND (name:"mail" OR txtname:"mail"))
//
// Matching compares every value of the named item as string.

// Predicate 查询谓词
type Predicate func(doc *document.ItemCollection) bool

// ParseQuery compiles the search DSL into a predicate. An empty query
// matches everything.
func ParseQuery(query string) (Predicate, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return func(*document.ItemCollection) bool { return true }, nil
	}
	p := &queryParser{tokens: tokens}
	predicate, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected token '%s'", p.tokens[p.pos])
	}
	return predicate, nil
}

func tokenize(query string) []string {
	var tokens []string
	i := 0
	for i < len(query) {
		c := query[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(' || c == ')':
			tokens = append(tokens, string(c))
			i++
		default:
			// term or keyword until whitespace/paren; quoted parts keep spaces
			start := i
			inQuotes := false
			for i < len(query) {
				c = query[i]
				if c == '"' {
					inQuotes = !inQuotes
				} else if !inQuotes && (c == ' ' || c == '\t' || c == '\n' || c == '(' || c == ')') {
					break
				}
				i++
			}
			tokens = append(tokens, query[start:i])
		}
	}
	return tokens
}

type queryParser struct {
	tokens []string
	pos    int
}

// parseExpression := term { (AND|OR) term }
func (p *queryParser) parseExpression() (Predicate, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.tokens) {
		op := strings.ToUpper(p.tokens[p.pos])
		if op != "AND" && op != "OR" {
			break
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		l := left
		if op == "AND" {
			left = func(doc *document.ItemCollection) bool { return l(doc) && right(doc) }
		} else {
			left = func(doc *document.ItemCollection) bool { return l(doc) || right(doc) }
		}
	}
	return left, nil
}

// parseTerm := item:"value" | "(" expression ")"
func (p *queryParser) parseTerm() (Predicate, error) {
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of query")
	}
	token := p.tokens[p.pos]
	if token == "(" {
		p.pos++
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos] != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}

	colon := strings.Index(token, ":")
	if colon <= 0 {
		return nil, fmt.Errorf("invalid query term '%s'", token)
	}
	item := token[:colon]
	value := strings.Trim(token[colon+1:], `"`)
	p.pos++
	return func(doc *document.ItemCollection) bool {
		for _, v := range doc.GetItemValueList(item) {
			if v == value {
				return true
			}
		}
		return false
	}, nil
}

// queryTypeHint extracts the first type:"..." term so SQL stores can narrow
// the scan.
func queryTypeHint(query string) string {
	for _, token := range tokenize(query) {
		if strings.HasPrefix(token, "type:") {
			return strings.Trim(token[len("type:"):], `"`)
		}
	}
	return ""
}
