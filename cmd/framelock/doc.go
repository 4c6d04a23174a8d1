// Command framelock renders short-form videos deterministically from asset
// manifests and render plans, and audits its own reproducibility.
package main
