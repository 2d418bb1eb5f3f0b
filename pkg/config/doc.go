// Package config provides configuration management for tap-postmark.
//
// # Usage
//
//	cfg, err := config.LoadTapConfig("config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variables
//
// Values of the form ${VAR_NAME} are replaced with the environment
// variable before parsing:
//
//	postmark_server_token: ${POSTMARK_SERVER_TOKEN}
//	state:
//	  backend: s3
//	  bucket: ${STATE_BUCKET}
//
// The CLI additionally binds TAP_POSTMARK_* variables and flags on top of
// the file.
package config
