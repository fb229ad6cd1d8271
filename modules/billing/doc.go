// Package billing composes the ledger, plan catalog, subscription state
// machine, settlement engine and merchant metrics into an HTTP module with a
// JSON request/response surface. Caller identity arrives in the X-Account-ID
// header; authenticating it is the responsibility of the gateway in front.
package billing
