package domain

// AuthContext is the per-account credential material obtained from the
// auth provider. Immutable for the life of a protocol session; a new one
// is obtained when the session is rebuilt.
type AuthContext struct {
	AccountID    string
	Token        string
	DeviceIDHex  string
	CheckinToken string
}

// DeviceProfile is the fingerprint bag snapshotted from the host. Only
// request assembly reads it.
type DeviceProfile struct {
	Build          string
	Product        string
	Model          string
	Manufacturer   string
	Fingerprint    string
	SDKVersion     int
	ClientVersion  int
	Locale         string
	TimeZone       string
	GSFVersionCode int
}

// ClientIdentity describes the calling application.
type ClientIdentity struct {
	PackageName string
	CertHashSHA string
	VersionCode int
}
