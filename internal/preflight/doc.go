// Package preflight provides readiness checks for the filesystem paths and
// optional endpoints a customsflow session depends on.
//
// These checks run in two contexts:
//   - session.Start calls RunAll and refuses to start when a required check
//     fails, before the operator lock or journal are touched.
//   - The CLI "customsflow preflight" command prints every result.
//
// Optional checks are gated by their config settings.
package preflight
