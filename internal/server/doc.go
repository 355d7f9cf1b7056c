// Package server provides HTTP routing, middleware, and the song handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Handler Interface
//
// Handlers implement the [Handler] interface and return their [Route] list, keeping route definitions next to the
// implementation. [SongHandler] is the only one:
//
//	GET    /song       → {"songs": [...]}
//	GET    /song/{id}  → song, or 404
//	POST   /song       → 201 {"inserted id": {"$oid": ...}}, or 302 when the id exists
//	PUT    /song/{id}  → 201 updated song, 200 when nothing changed, or 404
//	DELETE /song/{id}  → 204, or 404
//	GET    /health     → 200 or 503 depending on storage
//
// # Middleware
//
// [RequestID], [Logger], [Recoverer] and [RateLimit] make up the stack assembled by [NewSongRouter].
//
// # Server
//
// [Server] runs the router until its context is cancelled and then shuts down gracefully.
package server
