// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package lifecycle keeps the set of requests that are currently open.
//
// The [Tracker] middleware records every request when it enters the pipeline
// and removes it when the handler returns or the client goes away, whichever
// happens first. Removal is idempotent and the finished callbacks fire once
// per request. The open count feeds the drain coordinator.
package lifecycle
