// Package service contains the application services that orchestrate the
// domain packages, the stores and the authorization gate. Services own the
// propose/authorize/commit sequence: every irreversible mutation is first
// computed, then authorized through the gate, and only then committed in a
// single transaction that consumes the authorization nonce.
package service
