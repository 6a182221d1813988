package config

import "strings"

// BlobConfig selects where uploaded product images are stored.  The "local"
// backend writes under Dir and the files are served by the API itself at
// /uploads; the "s3" backend writes to Bucket (optionally through a custom
// Endpoint such as MinIO) and PublicBaseURL should point at the bucket.
type BlobConfig struct {
	Backend       string // local | s3
	Dir           string // root directory for the local backend
	PublicBaseURL string // prefix for image URLs, e.g. http://localhost:8080
	MaxBytes      int64  // upload size cap
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
}

// LoadBlobConfig reads the upload/blob settings.  The 5 MiB default matches
// the limit the front end advertises.
func LoadBlobConfig() BlobConfig {
	return BlobConfig{
		Backend:       strings.ToLower(envStr("BLOB_BACKEND", "local")),
		Dir:           envStr("UPLOAD_DIR", "wwwroot"),
		PublicBaseURL: strings.TrimRight(envStr("UPLOAD_BASE_URL", "http://localhost:8080"), "/"),
		MaxBytes:      envInt64("UPLOAD_MAX_BYTES", 5*1024*1024),
		S3Bucket:      envStr("S3_BUCKET", ""),
		S3Region:      envStr("S3_REGION", "us-east-1"),
		S3Endpoint:    envStr("S3_ENDPOINT", ""),
	}
}
