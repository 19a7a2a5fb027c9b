// Package blob reads and writes whole archives by location.
//
// A location is either a filesystem path or an s3://bucket/key URL. The
// Resolver maps locations onto Store implementations according to the
// [storage] configuration: FS for local files, Memory for tests and dry
// runs, S3 for AWS S3 or compatible services such as MinIO. S3 calls are
// retried with exponential backoff on throttling and server errors.
package blob
