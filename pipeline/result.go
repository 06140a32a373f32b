package pipeline

// PageResult is the recognition outcome of a single page. A page either
// carries recognized text (possibly empty) or an error message; a failed page
// never carries text.
type PageResult struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
	TextLength int    `json:"textLength"`
	Error      string `json:"error,omitempty"`
	ImageFile  string `json:"imageFile,omitempty"`
}

// Result is the outcome of processing one input file. TotalPages always
// equals len(Pages); PagesProcessed counts the pages whose recognition
// succeeded and never exceeds TotalPages.
type Result struct {
	Success        bool         `json:"success"`
	Text           string       `json:"text"`
	Pages          []PageResult `json:"pages"`
	FileName       string       `json:"fileName"`
	TextLength     int          `json:"textLength"`
	InputSize      int          `json:"inputSize"`
	PagesProcessed int          `json:"pagesProcessed"`
	TotalPages     int          `json:"totalPages"`
}
