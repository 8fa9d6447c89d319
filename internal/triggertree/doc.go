// Package triggertree indexes boolean triggers so that, given a frame, it
// returns exactly the actions whose triggers hold and are not strict
// generalizations of another trigger that holds.
//
// A trigger expression is decomposed into clauses (conjunctions of
// predicates). Clauses are arranged in a tree ordered by specialization:
//
//	true
//	├── exists(blah)
//	│   └── exists(blah) && woof == 3
//	└── exists(woof)
//
// Matching walks the tree from the root, descending only into nodes whose
// clause holds, and finally drops every candidate that generalizes another.
//
// Key design constraints:
//   - Nodes live in an arena and are addressed by NodeID; triggers record
//     their placements as IDs
//   - Relationship computation is pure and never panics
//   - Per-property Comparers decide predicates whose operands differ
//   - No internal locking: single writer, concurrent readers
package triggertree
