package video

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}

// Lister enumerates the videos of a VOD directory
type Lister interface {
	// List returns video file names in dir, sorted
	List(dir string) ([]string, error)
}
