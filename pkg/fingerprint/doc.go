// Package fingerprint derives stable client identifiers from HTTP requests.
//
// UploadClientID keys the upload rate limiter. Generate produces a device
// fingerprint stored with a session and checked on every request.
package fingerprint
