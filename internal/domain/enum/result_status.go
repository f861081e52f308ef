package enum

// ResultStatus tells the dashboard how to render an analytics result.
// Only StatusSuccess carries real, complete data.
type ResultStatus string

const (
	StatusSuccess     ResultStatus = "success"
	StatusNoData      ResultStatus = "no_data"
	StatusLoading     ResultStatus = "loading" // not ready: nothing in the ranking window yet
	StatusPlaceholder ResultStatus = "placeholder"
	StatusError       ResultStatus = "error"
)

func (s ResultStatus) String() string {
	return string(s)
}

func (s ResultStatus) IsSuccess() bool {
	return s == StatusSuccess
}
