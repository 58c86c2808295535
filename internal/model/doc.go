// Package model holds the wire and domain types shared by the somectl client
// packages. JSON tags follow the backend's camelCase field names.
package model
