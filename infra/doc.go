// Package infra holds the adapters around the search core: the zerolog
// logger, metrics sinks, the MQTT result publisher and the roster loader.
// These packages depend only on the interfaces defined under core.
package infra
