// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package services adapts components whose lifecycle is not context-driven to
suture's Serve(ctx) error pattern.

The ledger feed and the dispatcher already implement suture.Service. The admin
HTTP server does not: http.Server blocks in ListenAndServe and stops through
Shutdown. HTTPServerService bridges the two:

	server := &http.Server{Addr: ":8080", Handler: router.SetupChi()}
	svc := services.NewHTTPServerService("admin-http", server, 10*time.Second, logger)
	tree.AddAPIService(svc)

On context cancellation the server is shut down gracefully and Serve returns
ctx.Err(). A listener failure is returned as an error so the supervisor
restarts the service with backoff.
*/
package services
