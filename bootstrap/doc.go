// Package bootstrap provides application initialization and lifecycle
// management: logger and config setup, application-locator resolution, the
// listening socket, and graceful shutdown.
//
// Usage:
//
//	app, err := bootstrap.NewApp(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := app.Start(ctx); err != nil {
//	    app.Shutdown()
//	    log.Fatal(err)
//	}
//
//	err = app.WaitForShutdown()
//	app.Shutdown()
package bootstrap
