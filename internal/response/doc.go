// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package response writes every client-facing answer of the server as a
// [models.Envelope].
//
// A [Responder] builds success envelopes from the code registry and turns
// failures into failure envelopes through a fixed classification order (see
// [Responder.Fail]). Failures are described by the closed [Failure] sum type,
// chosen where the error originates: a plain [Code], an expected
// [*DomainFailure], an unexpected [*DomainError], a [Prebuilt] envelope, a
// [Coded] value or an arbitrary error wrapped in [Err].
//
// The package also provides the request-scoped plumbing around it:
// [Install] makes the responder available to handlers (including the
// [Responder.Invalid] escape hatch), [Recover] converts panics into error
// envelopes, and [HandlerFunc] lets handlers return errors instead of writing
// them.
package response
