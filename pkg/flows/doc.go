// Package flows wraps the WhatsApp Business Graph API endpoints used to
// author, publish and deliver WhatsApp Flows.
//
// Every Manager method issues exactly one blocking HTTP call and hands the
// response back without interpreting it. HTTP error statuses are not Go
// errors; callers inspect Response.IsSuccess or Response.APIError. Only
// transport failures, unreadable upload files and incomplete send requests
// are reported through the error return.
package flows
