package common

// AuthorizationHeaderName carries the bearer access token on outbound
// requests.
const AuthorizationHeaderName = "Authorization"

// DeviceIDHeaderName carries the stable per-install identifier on every
// outbound request so the server can correlate guest sessions with devices.
const DeviceIDHeaderName = "X-Device-Id"
