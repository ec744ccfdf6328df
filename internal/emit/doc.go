// Package emit hands a resolved manifest to the build host. Manifests can be
// written to a stream or file as JSON, YAML or MessagePack, or pushed to a
// socket.io endpoint that acknowledges receipt.
package emit
