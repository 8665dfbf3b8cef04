package response

import "doorlist/lib/clock"

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Duplicate     bool        `json:"duplicate,omitempty"`
	Count         int         `json:"count,omitempty"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

// List is Ok with an explicit record count for administrative reads
func List(data interface{}, count int) Response {
	r := Ok(data)
	r.Count = count
	return r
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Conflict marks an already-registered outcome; an expected result,
// not a failure of the service
func Conflict(message string) Response {
	r := Error(message)
	r.Duplicate = true
	return r
}
