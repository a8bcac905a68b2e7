package api

const ApiVersion = "2.0"
const ApiVersionMajor = "2"

// FullRootPath returns the prefix every versioned route hangs off.
func FullRootPath() string {
	return "/api/v" + ApiVersionMajor
}
