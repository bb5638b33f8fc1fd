// Package server exposes stored documents, their entities and hybrid search
// as a JSON HTTP API built on gin.
package server
