// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package codes holds the registry of stable response codes and the
// human-readable messages attached to them.
//
// Besides code → message lookups the registry keeps an ordered list of error
// masks: library or transport errors (a body that is too large, malformed
// JSON, ...) are mapped onto dedicated codes so that the response layer can
// always answer them with a stable envelope. Masks are matched with
// [errors.Is] / [errors.As] in registration order.
package codes
