package api

type OverrideRequest struct {
	Weekday int `json:"weekday"`
}

type OverrideEntry struct {
	Date    string `json:"date"`
	Weekday int    `json:"weekday"`
}

type ImportResponse struct {
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Conflicts []string `json:"conflicts,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
