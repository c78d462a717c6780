package servicedef

// VerificationResponse is the body returned by the verification endpoints. A 2xx response with a
// non-empty Errors list still means that verification failed.
type VerificationResponse struct {
	Checks   []string      `json:"checks"`
	Warnings []interface{} `json:"warnings"`
	Errors   []interface{} `json:"errors"`
}

// ErrorResponse is the conventional body of a non-2xx response.
type ErrorResponse struct {
	Message string        `json:"message,omitempty"`
	Errors  []interface{} `json:"errors,omitempty"`
}
