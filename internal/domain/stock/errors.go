package stock

// Fetch failure codes carried by pkg/errors.AppError. All three collapse to a
// single generic failure at the proxy boundary.
const (
	CodeNetworkError    = "network_error"
	CodeHTTPStatusError = "http_status_error"
	CodeParseError      = "parse_error"
)
