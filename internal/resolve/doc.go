// Package resolve walks a parsed query against an entity graph and builds the
// result tree.
//
// ARCHITECTURE:
//
// Synchronous Tree Walk:
// One resolution is a depth-first walk of the query. Each node is read from
// the current context entity, then shaped by its kind:
// - Prop / ParamProp: the value as found
// - Join: the subquery applied to the entity (to-one) or to each item (to-many)
// - RecursiveJoin: the enclosing query applied again, bounded by depth or by cycles
// - UnionJoin: the branch selected by the item's tag
// - Ident: a shallow copy of the addressed entity
// - Mutation: the Mutator's return value
//
// Lookup Order:
// A configured Reader sees every non-mutation node first. Declined nodes fall
// back to GraphReader. Params are passed through untouched.
//
// CRITICAL PATTERNS:
//
// Omission, Not Error:
// Absent keys, dangling idents, scalars in join position and exhausted
// recursion budgets leave the key out of the result. Only invalid queries,
// reader failures, mutation failures, cancellation and the depth guard abort
// a resolution, and they abort it whole.
//
// Cycle Termination:
// Unbounded recursive joins track the idents on the current path. Reaching an
// ancestor again yields an empty result for that item.
//
// Determinism:
// Result keys follow query order and to-many results follow source order.
// Resolving the same query against an unchanged graph yields results with the
// same Fingerprint.
package resolve
