package constants

import (
	"time"
)

// Transfer sizing
const (
	// DefaultPartSize - size of each uploaded part before encoding (10 MiB)
	// Overridable through W3S_PART_SIZE.
	//
	// Trade-offs:
	// - Smaller parts = more requests but finer progress granularity
	// - Larger parts = fewer requests but more memory per in-flight part
	DefaultPartSize = 10 * 1024 * 1024

	// MinPartSize - smallest part size accepted from the environment (256 KiB)
	MinPartSize = 256 * 1024

	// MaxManifestSize - largest manifest document a download will decode (16 MiB)
	MaxManifestSize = 16 * 1024 * 1024

	// ManifestSniffSize - bytes peeked from a download body to recognise a manifest
	ManifestSniffSize = 512

	// DiskSpaceSafetyMargin - multiplier applied to a download's size before
	// comparing it with free disk space
	DiskSpaceSafetyMargin = 1.05
)

// CLI Concurrency Limits
const (
	// DefaultUploadFileConcurrency - default concurrent parts for upload-file
	DefaultUploadFileConcurrency = 4

	// DefaultUploadDirConcurrency - default concurrent parts for upload-dir
	DefaultUploadDirConcurrency = 8

	// MinMaxConcurrent - minimum concurrent parts (sequential mode)
	MinMaxConcurrent = 1

	// MaxMaxConcurrent - maximum concurrent parts allowed
	MaxMaxConcurrent = 16

	// DefaultDownloadConcurrency - concurrent part fetches while resolving a manifest
	DefaultDownloadConcurrency = 4
)

// Credential storage
const (
	// CredentialDirName - directory under the user's home holding the token
	CredentialDirName = ".w3s"

	// CredentialFileName - file holding the remembered API token
	CredentialFileName = "credentials"

	// FallbackDownloadName - file name used when none can be derived from the URL
	FallbackDownloadName = "downloaded"
)

// Service endpoints
const (
	// DefaultAPIURL - upload API base URL
	DefaultAPIURL = "https://api.web3.storage"

	// DefaultGatewayURL - gateway prefix used to fetch content by CID
	DefaultGatewayURL = "https://w3s.link/ipfs/"
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (60 seconds)
	HTTPTLSHandshakeTimeout = 60 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPResponseHeaderTimeout - time to wait for response headers (5 minutes)
	HTTPResponseHeaderTimeout = 5 * time.Minute
)

// Retry policy for the transfer client
const (
	// DefaultRetryMax - retries per request after the first attempt
	DefaultRetryMax = 5

	// RetryWaitMin - minimum backoff between attempts
	RetryWaitMin = 1 * time.Second

	// RetryWaitMax - maximum backoff between attempts
	RetryWaitMax = 30 * time.Second
)

// Rendering
const (
	// SimpleBarThrottle - minimum interval between progressbar redraws
	SimpleBarThrottle = 100 * time.Millisecond

	// BarsRefreshRate - mpb refresh rate
	BarsRefreshRate = 150 * time.Millisecond

	// ByteDigits - fractional digits used when printing byte counts
	ByteDigits = 2
)
