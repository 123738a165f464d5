// Package domain defines the core task entity, its status machine,
// and the domain errors shared across the application.
package domain
