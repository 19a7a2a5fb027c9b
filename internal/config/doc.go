// Package config loads, normalizes, and validates sqxedit configuration.
//
// Configuration is TOML. Load starts from Default, decodes the file if it
// exists, expands "~" in paths, applies environment fallbacks
// (SQXEDIT_S3_BUCKET, SQXEDIT_S3_ENDPOINT, AWS_REGION) and validates the
// result. CreateSample writes the embedded annotated sample.
package config
