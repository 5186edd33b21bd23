// Package protect guards deployments against shipping sensitive artifacts.
package protect

// DefaultPatterns defines glob patterns for artifacts that must never deploy.
var DefaultPatterns = []string{
	"**/secrets/**",
	"**/credentials/**",
	"**/certs/**",
	"**/keys/**",
	"**/.ssh/**",
	"**/.github/**",
	"**/.devflow/**",
	"**/terraform/**",
	"**/migrations/**",
}

// DefaultKeywords defines substrings that mark an artifact path as sensitive.
var DefaultKeywords = []string{
	"secret",
	"password",
	"credential",
	"token",
	"private",
	"keystore",
}

// DefaultFileTypes defines artifact extensions that must never deploy.
var DefaultFileTypes = []string{
	".pem",
	".key",
	".env",
	".p12",
	".pfx",
	".jks",
	".keystore",
	".crt",
	".cer",
	".tfstate",
}
