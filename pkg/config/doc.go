// Package config loads typed configuration from environment variables.
//
// Config structs are declared next to the package that consumes them and
// tagged for github.com/caarlos0/env:
//
//	type Config struct {
//		Bucket string `env:"S3_BUCKET_NAME,required"`
//		Region string `env:"AWS_REGION" envDefault:"us-east-1"`
//	}
//
// Load reads an optional .env file once, parses the struct and caches the
// result per type, so every caller of Load for the same type observes the
// same values. MustLoad panics instead of returning an error.
package config
