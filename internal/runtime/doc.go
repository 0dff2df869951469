// Package runtime wires configuration, the log store, the session catalog and
// the logger into a single context object for a Lodge process. It exposes
// Open/Close, a basic health check and accessors for each component.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	rt.Logger().Info("ready")
//	content, ok := rt.Storage().CurrentLog()
package runtime
