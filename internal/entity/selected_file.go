package entity

// SelectedFile is one user-chosen PDF held in memory for the length of a run.
type SelectedFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Pages       int    `json:"pages,omitempty"`
	Content     []byte `json:"-"`
}
