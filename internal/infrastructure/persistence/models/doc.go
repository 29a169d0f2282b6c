// Package models holds the gorm row types behind the procurement repositories.
// Domain aggregates carry no gorm tags; each model converts to and from its
// aggregate with ToDomain and FromDomain.
package models
