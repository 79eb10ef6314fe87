// Package flows holds the authentication state machines, decoupled from the
// root package through explicit dependency structs.
//
// Each flow is a pure Run* function over its deps: the root engine wires the
// deps once at build time and maps the returned failure kinds onto its public
// sentinel errors. Flows never import the root package and never log or emit
// metrics themselves.
package flows
