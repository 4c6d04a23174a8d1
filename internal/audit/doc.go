// Package audit checks render determinism by repeating a render in isolated
// directories and diffing the written artifacts field by field, with known
// volatile fields excluded.
package audit
