// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec serializes the full chat state to a compact opaque blob
// and back, and defines the storage slot it is written to.
//
// The on-disk representation is JSON, DEFLATE-compressed and base64
// encoded. Chat histories repeat the same structure and keys for every
// message, which is exactly the redundancy DEFLATE removes; the stored
// payload stays sub-linear in that redundancy.
//
// Failure policy: Deserialize never returns an error. Corrupt base64, a
// truncated compression stream, unparseable JSON, and malformed
// timestamps all collapse to "no prior state" so the application can
// always start with an empty store. Serialize and Backend writes do
// return errors, but callers treat them as non-fatal.
package codec
