package minecraft

// DefaultResourcesURL is where asset objects are downloaded from
const DefaultResourcesURL = "https://resources.download.minecraft.net/"

// AssetIndex is just a map containing AssetObjects
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
	// Virtual indexes (pre 1.7) need a copy of every object under its name
	Virtual bool `json:"virtual,omitempty"`
	// MapToResources indexes (pre 1.6) need a copy in the resources folder
	MapToResources bool `json:"map_to_resources,omitempty"`
}

// AssetObject is one minecraft asset
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
	// CompressedHash and CompressedSize describe an optional gzip variant
	CompressedHash string `json:"compressed_hash,omitempty"`
	CompressedSize int64  `json:"compressed_size,omitempty"`
}

// UnixPath returns the path including the folder
// example: fe/fe32f3b8…
func (a *AssetObject) UnixPath() string {
	return a.Hash[:2] + "/" + a.Hash
}

// DownloadURL returns the download url for this asset
func (a *AssetObject) DownloadURL(base string) string {
	if base == "" {
		base = DefaultResourcesURL
	}
	return base + a.UnixPath()
}

// CompressedURL returns the download url of the gzip variant
func (a *AssetObject) CompressedURL(base string) string {
	if base == "" {
		base = DefaultResourcesURL
	}
	return base + a.CompressedHash[:2] + "/" + a.CompressedHash
}
