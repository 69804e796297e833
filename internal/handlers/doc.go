// Package handlers implements the HTTP API layer of taskmaster.
//
// Handlers validate requests, delegate to services.RunService and map
// service errors to HTTP status codes. Request and response bodies are the
// types of api/v1.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - Body and query binding                                       │
//	│  - Pagination                                                   │
//	│  - Error mapping to HTTP status codes                           │
//	│  - Model-to-API conversion                                      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      RunService                                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # API Endpoints
//
//	┌────────┬──────────────┬──────────────────────────────────────────┐
//	│ Method │ Endpoint     │ Description                              │
//	├────────┼──────────────┼──────────────────────────────────────────┤
//	│ POST   │ /runs/sum    │ Start a range sum (202 + run)            │
//	│ POST   │ /runs/median │ Start a row median filter (202 + run)    │
//	│ GET    │ /runs        │ List runs with filtering/pagination      │
//	│ GET    │ /runs/{id}   │ Get one run                              │
//	│ DELETE │ /runs/{id}   │ Cancel a running computation (202)       │
//	└────────┴──────────────┴──────────────────────────────────────────┘
//
// GET /runs query parameters:
//   - status: repeated, running|completed|cancelled|failed
//   - workload: repeated, sum|median
//   - page: 1-based page number (default 1)
//   - pageSize: default 20, capped at 100
//
// # Error Mapping
//
//	┌────────────────────────────┬────────┐
//	│ Error                      │ Status │
//	├────────────────────────────┼────────┤
//	│ binding / invalid id       │ 400    │
//	│ InvalidParameterError      │ 400    │
//	│ ResourceNotFoundError      │ 404    │
//	│ RunNotActiveError          │ 409    │
//	│ ServiceClosedError         │ 503    │
//	│ anything else (logged)     │ 500    │
//	└────────────────────────────┴────────┘
package handlers
