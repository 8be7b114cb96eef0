package minecraft

// Artifact is an object describing a "thing" that can be downloaded
// It is used to download libraries, logging configs and the minecraft client itself
type Artifact struct {
	// ID is only set for logging configs (the file name)
	ID string `json:"id,omitempty"`
	// Path of the jar file relative to the libraries folder
	// Path is not set for the minecraft client itself
	Path string `json:"path,omitempty"`
	Sha1 string `json:"sha1,omitempty"`
	// Size in bytes
	Size int64 `json:"size,omitempty"`
	// URL to download the file
	URL string `json:"url"`
}

// AssetIndexRef points to the asset index of a version
type AssetIndexRef struct {
	ID        string `json:"id"`
	Sha1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// Logging holds the log4j configuration for the client
type Logging struct {
	Client *LoggingConfig `json:"client,omitempty"`
}

// LoggingConfig is a log4j config file and the jvm argument to use it
type LoggingConfig struct {
	// Argument contains a ${path} placeholder for the config file
	Argument string   `json:"argument"`
	File     Artifact `json:"file"`
	Type     string   `json:"type,omitempty"`
}

// JavaVersion is the java runtime a version needs
type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// DefaultJavaVersion is used for old versions that don't declare one
var DefaultJavaVersion = JavaVersion{Component: "jre-legacy", MajorVersion: 8}
