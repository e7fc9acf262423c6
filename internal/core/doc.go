// Package core provides the table model and view pipeline of sheetview.
//
// This package holds all domain logic independent of any UI or transport
// layer. The HTTP server, the CLI and the terminal UI all drive the same
// types.
//
// # Architecture
//
//   - Table: the canonical row sequence. Rows get a stable [RowID] when
//     loaded and cell updates are copy-on-write.
//   - Pipeline: [Filter], [Sort] and [Paginate] are pure functions of the
//     rows and an immutable [ViewState]. [Derive] runs all three.
//   - Workspace: one table, its view state, at most one [EditTarget] and a
//     load [Status]. Methods serialize on a per-workspace mutex.
//   - Export: [BuildExport] lays out every filtered and sorted row (not just
//     the page) as a single sheet with column widths.
//   - Service: the set of live workspaces for the server, uploads gated by
//     an [UploadLimiter], and idle-session eviction.
//
// # Upload Flow
//
//  1. The handler creates a workspace with [Service.CreateWorkspace]
//  2. [Service.Upload] marks it loading, takes an upload slot and reads the
//     file up to the size limit
//  3. The codec decodes the first sheet; row one is the header
//  4. The table is replaced in one step, the page returns to 1 and any edit
//     is dropped; search and sort carry over
//
// A failed upload leaves the previous table in place and sets
// [StatusFailed] until the next upload.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE006: File errors (size, format, empty, export)
//   - UPL001-UPL005: Upload errors (busy, cancelled, timeout)
//   - WS001-WS003: Workspace errors (not found, limit, stale selection)
//   - RATE001: Rate limiting
//   - ERR000: Unknown error (fallback)
package core
