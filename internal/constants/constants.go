package constants

type contextKey string

// RequestIDKey request id存放在context的key
const RequestIDKey contextKey = "request_id"
