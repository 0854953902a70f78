// Package activity exposes the API available to activity function bodies.
//
// Activity functions receive a context.Context derived from the worker. The
// helpers in this package read execution-scoped state from that context, so
// they only do useful work when called from inside a running activity.
package activity
