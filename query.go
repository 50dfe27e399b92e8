package main

import (
	"strings"
)

// NodeKind discriminates the FilterNode tagged union.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeTag
	NodePriority
	NodeDate
	NodeAnd
	NodeOr
	NodeNot
)

// String returns the kind name, mostly for test failure messages.
func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "TEXT"
	case NodeTag:
		return "TAG"
	case NodePriority:
		return "PRIORITY"
	case NodeDate:
		return "DATE"
	case NodeAnd:
		return "AND"
	case NodeOr:
		return "OR"
	case NodeNot:
		return "NOT"
	default:
		return "UNKNOWN"
	}
}

// FilterNode is one node of a parsed filter query. Which fields are set
// depends on Kind: And/Or use Left and Right, Not uses Child, the leaf
// kinds use Value (and Op for Priority/Date). Nodes are immutable once
// parsed.
type FilterNode struct {
	Kind  NodeKind
	Left  *FilterNode
	Right *FilterNode
	Child *FilterNode
	Op    string // >, <, =, >=, <=, != (Priority and Date only)
	Value string
}

// comparisonOps in longest-match-first order so >= is never read as > =.
var comparisonOps = []string{">=", "<=", "!=", ">", "<", "="}

// ParseFilterQuery parses a filter query string into a FilterNode tree.
//
// The language: free text, #tag, PRIORITY:<op><value>, DATE:<op><value>,
// AND/OR/NOT (case-insensitive) and parentheses for grouping. Parsing is
// recursive string slicing with no tokenizer pass, and it never fails:
// anything without a recognized structure becomes a TEXT predicate.
//
// Chained boolean operators split at the first occurrence found at paren
// depth zero and recurse on both sides, so "a AND b AND c" parses as
// AND{a, AND{b, c}}. AND is looked for before OR at every level.
func ParseFilterQuery(query string) *FilterNode {
	query = strings.TrimSpace(query)

	if query == "" {
		return &FilterNode{Kind: NodeText, Value: ""}
	}

	// A balanced top-level parenthesized group is handled first. Only the
	// first group is processed per call; recursion picks up the rest.
	if node, ok := parseParenGroup(query); ok {
		return node
	}

	// Leading NOT applies to the whole remainder.
	if len(query) > 4 && strings.EqualFold(query[:4], "NOT ") {
		return &FilterNode{
			Kind:  NodeNot,
			Child: ParseFilterQuery(query[4:]),
		}
	}

	if idx := indexTopLevel(query, " AND "); idx >= 0 {
		return &FilterNode{
			Kind:  NodeAnd,
			Left:  ParseFilterQuery(query[:idx]),
			Right: ParseFilterQuery(query[idx+5:]),
		}
	}

	if idx := indexTopLevel(query, " OR "); idx >= 0 {
		return &FilterNode{
			Kind:  NodeOr,
			Left:  ParseFilterQuery(query[:idx]),
			Right: ParseFilterQuery(query[idx+4:]),
		}
	}

	return parsePredicate(query)
}

// parseParenGroup finds the first balanced top-level (...) group. It returns
// the parsed node and true when a group was consumed.
func parseParenGroup(query string) (*FilterNode, bool) {
	open := strings.IndexByte(query, '(')
	if open < 0 {
		return nil, false
	}

	depth := 0
	closing := -1

	for i := open; i < len(query); i++ {
		switch query[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closing = i
			}
		}
		if closing >= 0 {
			break
		}
	}

	if closing < 0 {
		// Unbalanced parens degrade to whatever the rest of the parser
		// makes of the string.
		return nil, false
	}

	before := strings.TrimSpace(query[:open])
	inside := query[open+1 : closing]
	after := strings.TrimSpace(query[closing+1:])

	var node *FilterNode

	// A NOT directly before the group negates it; any earlier text is
	// carried into the remainder.
	if strings.EqualFold(before, "NOT") || hasFoldSuffix(before, " NOT") {
		node = &FilterNode{Kind: NodeNot, Child: ParseFilterQuery(inside)}
		before = strings.TrimSpace(before[:len(before)-3])
	} else {
		node = ParseFilterQuery(inside)
	}

	// An explicit connective at either group boundary decides how the group
	// joins the remainder; anything else is an implicit AND.
	joiner := NodeAnd
	explicit := false

	switch {
	case hasFoldSuffix(before, " AND") || strings.EqualFold(before, "AND"):
		before = strings.TrimSpace(strings.TrimSuffix(before, before[len(before)-3:]))
		explicit = true
	case hasFoldSuffix(before, " OR") || strings.EqualFold(before, "OR"):
		before = strings.TrimSpace(strings.TrimSuffix(before, before[len(before)-2:]))
		joiner = NodeOr
		explicit = true
	}

	remainder := strings.TrimSpace(before + " " + after)
	if remainder == "" {
		return node, true
	}

	if !explicit {
		switch {
		case foldHasPrefix(remainder, "AND "):
			remainder = strings.TrimSpace(remainder[4:])
		case foldHasPrefix(remainder, "OR "):
			remainder = strings.TrimSpace(remainder[3:])
			joiner = NodeOr
		}
	}

	if remainder == "" {
		return node, true
	}

	return &FilterNode{Kind: joiner, Left: node, Right: ParseFilterQuery(remainder)}, true
}

// parsePredicate handles the leaf forms: #tag, PRIORITY:, DATE:, free text.
func parsePredicate(query string) *FilterNode {
	if strings.HasPrefix(query, "#") {
		return &FilterNode{Kind: NodeTag, Value: query}
	}

	if foldHasPrefix(query, "PRIORITY:") {
		op, value := splitComparison(query[len("PRIORITY:"):])
		return &FilterNode{Kind: NodePriority, Op: op, Value: value}
	}

	if foldHasPrefix(query, "DATE:") {
		op, value := splitComparison(query[len("DATE:"):])
		return &FilterNode{Kind: NodeDate, Op: op, Value: value}
	}

	return &FilterNode{Kind: NodeText, Value: query}
}

// splitComparison peels a comparison operator off the front of a predicate
// value. Without an explicit operator the predicate is an exact match.
func splitComparison(s string) (op, value string) {
	s = strings.TrimSpace(s)

	for _, candidate := range comparisonOps {
		if strings.HasPrefix(s, candidate) {
			return candidate, strings.TrimSpace(s[len(candidate):])
		}
	}

	return "=", s
}

// indexTopLevel returns the first index of op (case-insensitive) at paren
// depth zero, or -1.
func indexTopLevel(query, op string) int {
	depth := 0

	for i := 0; i+len(op) <= len(query); i++ {
		switch query[i] {
		case '(':
			depth++
		case ')':
			depth--
		}

		if depth == 0 && strings.EqualFold(query[i:i+len(op)], op) {
			return i
		}
	}

	return -1
}

func foldHasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func hasFoldSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
