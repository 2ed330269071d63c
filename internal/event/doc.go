// Package event provides the pub/sub event bus for svgpro.
//
// Components publish typed events (session lifecycle, chat state changes,
// document updates) and any number of subscribers receive them. The bus is
// backed by watermill's gochannel pubsub; Publish fans out asynchronously,
// PublishSync delivers in order before returning. A process-wide default bus
// serves the common case, with per-instance buses available for tests.
package event
