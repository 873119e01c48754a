// Package api exposes the gate to the host agent framework over REST:
// transaction validation, read-only agent and evidence passthroughs, and the
// decision audit listing.
package api
