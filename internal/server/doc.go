// Package server provides the HTTP API over the session, chat, and document
// subsystems.
//
// It exposes session management and message exchange under /session, the
// markup document under /document, the effective configuration under /config,
// and a server-sent-events stream of bus events under /event. Routing is chi
// with the standard middleware stack; generation requests run through a
// per-session retry controller and report busy sessions with 409.
package server
