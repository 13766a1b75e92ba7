// Package google provides shared infrastructure for the Google Drive source.
//
// It contains:
//   - service-account credential loading
//   - the Drive API service factory
//   - error mapping for common Google API failures (401, 403, 404, 410, 429)
//   - rate limiting with backoff to respect Drive quotas
//
// # Usage
//
//	ts, err := google.ServiceAccountTokenSource(ctx, "/etc/kbsync/sa.json")
//	svc, err := google.NewDriveService(ctx, option.WithTokenSource(ts))
//
// # OAuth2 Scopes
//
// Only https://www.googleapis.com/auth/drive.readonly is requested. The
// watched folder must be shared with the service account's email.
package google
