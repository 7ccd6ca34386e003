// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

/*
Package api provides the admin HTTP surface over the subscription service.

Routes (chi):

	GET    /health                          feed state, registry size, uptime
	GET    /health/live                     liveness check
	GET    /health/ready                    503 until the ledger feed is connected
	GET    /metrics                         Prometheus exposition

	POST   /api/v1/subscriptions            subscribe {address, channel, endpoint_key}
	DELETE /api/v1/subscriptions            unsubscribe {address, channel, endpoint_key}
	GET    /api/v1/subscriptions/{address}  endpoints notified for an address
	POST   /api/v1/endpoints                register an endpoint with no address
	PUT    /api/v1/endpoints/address        rebind {channel, endpoint_key, to}
	GET    /api/v1/oauth/timeline/start     redirect to the timeline consent page
	GET    /api/v1/oauth/timeline/callback  exchange the code, register the token

The API is unauthenticated and meant to sit behind the deployment's own
gateway. Every /api/v1 request is rate limited per client IP (httprate),
counted in Prometheus, and tagged with an X-Request-ID.

Responses use a single envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "VALIDATION_ERROR", "message": "..."}, "meta": {...}}
*/
package api
