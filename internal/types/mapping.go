package types

// FileMappingRule maps a directory prefix inside a package to a directory
// prefix inside the container. The root prefix "/" is stored as "".
type FileMappingRule struct {
	Source string
	Dest   string
}
