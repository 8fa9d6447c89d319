// Package expr is the expression adapter for trigger trees.
//
// Trigger conditions are written in the expression subset of CUE:
//
//	exists(turn.text) && intent == "greet" && turn.score >= 0.8
//
// Parse turns source into a sealed Expr tree (Constant, Accessor, Exists,
// Comparison, And, Or, Not, Ignore, Optional). Evaluate runs an Expr
// against a Frame. PushDownNot and Clauses produce the negation normal form
// and the disjunctive clause decomposition the tree indexes. Substitute
// rewrites quantifier placeholders.
//
// All functions are pure; Expr values are immutable once built.
package expr
