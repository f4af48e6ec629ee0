// Package runner drives a session through one user prompt.
//
// A Runner appends the prompt, calls the model with the retained history and
// the registered tool declarations, appends the model turn and, while that
// turn carries function calls, executes them through the tool registry and
// appends the responses as a user turn before calling the model again. The
// number of model calls per prompt is bounded by a ModelLimiter.
//
// Progress is reported to an Observer after each appended turn and for every
// streamed text chunk, carrying the pending status labels and the display
// text the way a polling UI would read them from the session.
//
//	r := runner.New(m, func(o *runner.Options) {
//		o.Tools = registry
//		o.Observer = func(s runner.Step) { fmt.Println(s.Status) }
//	})
//	res, err := r.Run(ctx, sess, "Plan a weekend in Lisbon")
package runner
