package happenstance

// RequiredEventCount is the number of life events every request must carry.
const RequiredEventCount = 4

// LifeEvent is one chance occurrence and the user's response to it.
// Empty strings are accepted for every field.
type LifeEvent struct {
	Title     string `json:"title"`
	Period    string `json:"period"`
	Situation string `json:"situation"`
	Action    string `json:"action"`
}

// AnalysisRequest is the inbound payload of the analysis endpoint.
type AnalysisRequest struct {
	Events []*LifeEvent `json:"events" binding:"required,len=4,dive,required"`
	// RequestStructuredData asks for a trailing JSON skill-tag block.
	RequestStructuredData bool `json:"requestStructuredData"`
}
