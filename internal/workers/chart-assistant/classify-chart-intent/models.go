package classifychartintent

const (
	RouteChart        = "chart"
	RouteConversation = "conversation"
)

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	IsChartRequest bool   `json:"isChartRequest"`
	Route          string `json:"route"`
	MatchedRule    string `json:"matchedRule"`
}
