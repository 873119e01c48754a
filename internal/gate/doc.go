// Package gate implements the transaction guardrail gate: it builds
// validation requests from transaction intents, submits them to the remote
// policy-validation service, classifies the verdict and applies the local
// auto-block policy to produce a final allow/deny decision. The gate is
// deliberately fail-closed: any path that does not yield a verdict denies
// execution.
package gate
