// Package pkgrouter is the HTTP edge of the service.
//
// Handlers return a payload or an error. The router encodes payloads as
// {message, data, meta} and turns *pkgerror.Error into a status code, adding
// per-field validation errors when the cause carries them.
package pkgrouter
